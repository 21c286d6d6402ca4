package ingest

import "fmt"

// Diagnostics: упорядоченный список сообщений для клиента.
// Сообщения информационные: ни одно из них не прерывает разбор потока.
type Diagnostics []string

func (d *Diagnostics) Addf(format string, args ...any) {
	*d = append(*d, fmt.Sprintf(format, args...))
}

// Messages возвращает список; nil превращается в пустой срез, чтобы в JSON был [].
func (d *Diagnostics) Messages() []string {
	if d == nil || *d == nil {
		return []string{}
	}
	return *d
}

// Unexpected: параметр, который не является guid[i] или fileN[i] (N = 1..3).
func (d *Diagnostics) Unexpected(name string) {
	d.Addf("Unexpected parameter %s. Expected guid[index], file1[index], file2[index], file3[index].", name)
}
