package repository

import "github.com/itadmit/ipalsam-sub000/internal/domain/entity"

// SignatureRepository is the persistence port for confirmation records.
// Append-only, like movements.
type SignatureRepository interface {
	Create(sig *entity.Signature) error
	GetByRequestAndKind(requestID, kind string) (*entity.Signature, error)
}
