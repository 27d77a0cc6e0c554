package model

import "time"

// Movement kinds.
const (
	MovementIn       = "IN"
	MovementOut      = "OUT"
	MovementTransfer = "TRANSFER"
)

// Ledger reference types: what caused a movement.
const (
	RefJob        = "JOB"
	RefTransfer   = "TRANSFER"
	RefTransferIn = "TRANSFER_IN"
	RefMWR        = "MWR"
	RefMWRIn      = "MWR_IN"
	RefReceipt    = "RECEIPT"
	RefAdjustment = "ADJUSTMENT"
)

// StockTransaction is one immutable ledger entry.
type StockTransaction struct {
	ID              int64     `json:"id"`
	BatchID         string    `json:"batch_id"`
	Kind            string    `json:"kind"`
	Quantity        int       `json:"quantity"`
	PreviousBalance int       `json:"previous_balance"`
	NewBalance      int       `json:"new_balance"`
	PartID          int64     `json:"part_id"`
	Location        Location  `json:"location"`
	DestinationID   *int64    `json:"destination_site_id,omitempty"`
	RefType         string    `json:"ref_type"`
	RefID           *int64    `json:"ref_id,omitempty"`
	DocumentCode    string    `json:"document_code,omitempty"`
	UserID          *int64    `json:"user_id,omitempty"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`

	// Joined fields (not always populated).
	PartName string `json:"part_name,omitempty"`
}

// Inventory is the current quantity of a part at one location.
type Inventory struct {
	PartID    int64     `json:"part_id"`
	Location  Location  `json:"location"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	PartName string `json:"part_name,omitempty"`
	SiteName string `json:"site_name,omitempty"`
}

// Stock transfer statuses. APPROVED is terminal.
const (
	TransferPending  = "PENDING"
	TransferApproved = "APPROVED"
)

// StockTransfer is a planned move of several parts from central to one site.
type StockTransfer struct {
	ID            int64               `json:"id"`
	DestinationID *int64              `json:"destination_site_id,omitempty"`
	Status        string              `json:"status"`
	Note          string              `json:"note,omitempty"`
	RequestedBy   *int64              `json:"requested_by,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	ApprovedBy    *int64              `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time          `json:"approved_at,omitempty"`
	Items         []StockTransferItem `json:"items"`
}

// StockTransferItem is one line of a stock transfer.
type StockTransferItem struct {
	PartID   int64  `json:"part_id"`
	Quantity int    `json:"quantity"`
	PartName string `json:"part_name,omitempty"`
}
