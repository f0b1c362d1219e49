package catalog

import (
	"errors"
	"fmt"

	"github.com/andrescris/storefront/pkg/models"
)

var (
	ErrDuplicateLabel = errors.New("catalog: label already exists or is empty")
	ErrUnknownLabel   = errors.New("catalog: no such size or color")
	ErrUnknownOp      = errors.New("catalog: unknown variant operation")
)

type Dimension string

const (
	Sizes  Dimension = "sizes"
	Colors Dimension = "colors"
)

// Variant operations.
const (
	OpEnable       = "enable"
	OpAdd          = "add"
	OpRemove       = "remove"
	OpAvailability = "availability"
	OpImage        = "image"
)

// VariantOp is one edit of the size or color list of a product.
type VariantOp struct {
	Dimension Dimension `json:"dimension" validate:"required,oneof=sizes colors"`
	Op        string    `json:"op" validate:"required,oneof=enable add remove availability image"`
	Label     string    `json:"label"`
	Enabled   bool      `json:"enabled"`
	Available bool      `json:"available"`
	ImageURL  string    `json:"imageUrl"`
}

func (op VariantOp) has(p *models.Product) bool {
	if p.Variants == nil {
		return false
	}
	if op.Dimension == Sizes {
		_, ok := p.Variants.Sizes[op.Label]
		return ok
	}
	_, ok := p.Variants.Colors[op.Label]
	return ok
}

// Apply edits p in place.
func (op VariantOp) Apply(p *models.Product) error {
	if op.Dimension != Sizes && op.Dimension != Colors {
		return fmt.Errorf("%w: dimension %q", ErrUnknownOp, op.Dimension)
	}
	switch op.Op {
	case OpEnable:
		if op.Dimension == Sizes {
			p.SetHasSizes(op.Enabled)
		} else {
			p.SetHasColors(op.Enabled)
		}
		return nil
	case OpAdd:
		var added bool
		if op.Dimension == Sizes {
			added = p.AddSize(op.Label)
		} else {
			added = p.AddColor(op.Label)
		}
		if !added {
			return ErrDuplicateLabel
		}
		return nil
	}

	if !op.has(p) {
		return ErrUnknownLabel
	}
	switch op.Op {
	case OpRemove:
		if op.Dimension == Sizes {
			p.RemoveSize(op.Label)
		} else {
			p.RemoveColor(op.Label)
		}
	case OpAvailability:
		if op.Dimension == Sizes {
			p.SetSizeAvailable(op.Label, op.Available)
		} else {
			p.SetColorAvailable(op.Label, op.Available)
		}
	case OpImage:
		if op.Dimension != Colors {
			return fmt.Errorf("%w: sizes have no image", ErrUnknownOp)
		}
		p.SetColorImage(op.Label, op.ImageURL)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Op)
	}
	return nil
}
