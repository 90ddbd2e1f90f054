package repository

import "errors"

// Errores comunes a todas las implementaciones de persistencia.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)
