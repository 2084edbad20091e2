package voting

import "errors"

// Erros de negócio expostos aos handlers; falhas de armazenamento sobem embrulhadas em ErrInternal.
var (
	ErrInvalidInput  = errors.New("entrada invalida")
	ErrPollNotFound  = errors.New("enquete nao encontrada")
	ErrNotRegistered = errors.New("participante nao registrado nesta enquete")
	ErrUnauthorized  = errors.New("senha incorreta")
	ErrInternal      = errors.New("erro interno")
)
