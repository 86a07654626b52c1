package zatca

import "fmt"

// ValidateVATNumber valida el formato del número de registro de IVA saudí:
// 15 dígitos, el primero y el último deben ser '3'.
func ValidateVATNumber(vat string) error {
	if len(vat) != 15 {
		return fmt.Errorf("zatca: el número de IVA debe tener 15 dígitos, se recibieron %d caracteres", len(vat))
	}
	for i := 0; i < len(vat); i++ {
		if vat[i] < '0' || vat[i] > '9' {
			return fmt.Errorf("zatca: el número de IVA solo admite dígitos, carácter inválido en la posición %d", i+1)
		}
	}
	if vat[0] != '3' || vat[14] != '3' {
		return fmt.Errorf("zatca: el número de IVA debe iniciar y terminar en 3")
	}
	return nil
}
