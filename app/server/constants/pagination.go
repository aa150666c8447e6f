package constants

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
