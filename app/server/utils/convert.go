package utils

// P 取值的指针
func P[T any](v T) *T {
	return &v
}
