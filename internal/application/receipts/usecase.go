// Package receipts produces the printable loan form for a request: recipient
// snapshot, item line and confirmation state, rendered by a PDF generator
// behind a port.
package receipts

import (
	"context"
	"fmt"

	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

// ReceiptData everything the generator needs for one loan form.
type ReceiptData struct {
	Request   *entity.Request
	ItemType  *entity.ItemType
	Unit      *entity.ItemUnit // nil for quantity items
	Handover  *entity.Signature
	Return    *entity.Signature
	Requester *entity.User
}

// Generator renders a receipt to PDF bytes.
type Generator interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

// ReceiptUseCase assembles receipt data and delegates rendering.
type ReceiptUseCase struct {
	reqRepo  repository.RequestRepository
	itemRepo repository.ItemTypeRepository
	unitRepo repository.ItemUnitRepository
	sigRepo  repository.SignatureRepository
	userRepo repository.UserRepository
	gen      Generator
}

// NewReceiptUseCase builds the use case.
func NewReceiptUseCase(
	reqRepo repository.RequestRepository,
	itemRepo repository.ItemTypeRepository,
	unitRepo repository.ItemUnitRepository,
	sigRepo repository.SignatureRepository,
	userRepo repository.UserRepository,
	gen Generator,
) *ReceiptUseCase {
	return &ReceiptUseCase{
		reqRepo:  reqRepo,
		itemRepo: itemRepo,
		unitRepo: unitRepo,
		sigRepo:  sigRepo,
		userRepo: userRepo,
		gen:      gen,
	}
}

// Generate renders the loan form PDF for a request. Requesters see their own
// receipts; managing actors the whole department's.
func (uc *ReceiptUseCase) Generate(ctx context.Context, actor entity.Actor, requestID string) ([]byte, error) {
	req, err := uc.reqRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}
	if req.RequesterID != actor.ID && !actor.CanManage(req.DepartmentID) {
		return nil, domain.ErrForbidden
	}

	item, err := uc.itemRepo.GetByID(req.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", req.ItemTypeID, domain.ErrNotFound)
	}

	data := ReceiptData{Request: req, ItemType: item}
	if req.UnitID != nil {
		if data.Unit, err = uc.unitRepo.GetByID(*req.UnitID); err != nil {
			return nil, err
		}
	}
	if data.Handover, err = uc.sigRepo.GetByRequestAndKind(req.ID, entity.SignatureHandover); err != nil {
		return nil, err
	}
	if data.Return, err = uc.sigRepo.GetByRequestAndKind(req.ID, entity.SignatureReturn); err != nil {
		return nil, err
	}
	if data.Requester, err = uc.userRepo.GetByID(req.RequesterID); err != nil {
		return nil, err
	}
	return uc.gen.GenerateReceipt(ctx, data)
}
