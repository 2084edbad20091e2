package domain

import "errors"

var (
	ErrNotFound      = errors.New("registro nao encontrado")
	ErrAlreadyExists = errors.New("registro ja existe")
	ErrCorruptRecord = errors.New("registro corrompido")
)
