package importer

import (
	"context"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/catalog"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/csv"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/normalize"
)

// Carrier imports transport company rows. The business-partner code it
// stores (carrier_bp) is the join key the driver and vehicle files resolve
// their parent carrier through, so carrier files must land first.
type Carrier struct {
	types catalog.Cache
}

func NewCarrier() *Carrier {
	return &Carrier{types: catalog.Cache{}}
}

func (c *Carrier) Entity() string { return "carrier" }

func (c *Carrier) Key(rec csv.Record) string { return rec.Get("carrier_tin") }

func (c *Carrier) Preload(ctx context.Context, db DBTX) error {
	return catalog.Preload(ctx, db, c.types, "tipo_empresa", "carrier_type", "carrier_type_id")
}

const upsertCarrier = `
INSERT INTO empresa (carrier_name, carrier_rut, carrier_type_id, carrier_bp)
VALUES ($1, $2, $3, $4)
ON CONFLICT (carrier_rut) DO UPDATE SET
  carrier_name = EXCLUDED.carrier_name,
  carrier_type_id = EXCLUDED.carrier_type_id,
  carrier_bp = EXCLUDED.carrier_bp`

// ProcessRow validates the four mandatory carrier fields, resolves the
// carrier type catalog entry, and upserts on the tax id.
func (c *Carrier) ProcessRow(ctx context.Context, tx DBTX, rec csv.Record) error {
	carrierType := normalize.Spaces(rec.Get("carrier_type"))
	carrierName := normalize.Spaces(rec.Get("carrier_name"))
	carrierBP := normalize.Spaces(rec.Get("carrier_bp"))

	rut, ok := normalize.RUT(rec.Get("carrier_tin"), false)
	if !ok {
		return structuralf("invalid carrier_tin %q", rec.Get("carrier_tin"))
	}
	if carrierType == "" {
		return structuralf("carrier_type is empty")
	}
	if carrierName == "" {
		return structuralf("carrier_name is empty")
	}
	if carrierBP == "" {
		return structuralf("carrier_bp is empty")
	}

	typeID, err := catalog.Resolve(ctx, tx, c.types, carrierType, "tipo_empresa", "carrier_type", "carrier_type_id")
	if err != nil {
		return constraintf("resolving carrier type: %v", err)
	}

	if _, err := tx.Exec(ctx, upsertCarrier, carrierName, rut, typeID, carrierBP); err != nil {
		return constraintf("upserting carrier %s: %v", rut, err)
	}

	return nil
}
