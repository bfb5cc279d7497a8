// Package document turns catalog records into retrieval documents.
//
// Building is pure and total: a record with missing or empty fields renders
// with placeholders, never an error. The produced text is what gets embedded;
// the payload is the display-ready field copy stored next to the vector.
package document

import (
	"strconv"
	"strings"

	"github.com/palletic/warevec/core"
)

// Placeholder renders in place of any catalog field that is missing or empty.
const Placeholder = "unknown"

// Status phrasing is an explicit mapping, not incidental formatting: each
// stock-health class gets its own wording so their embeddings separate.
var statusSentences = map[string]string{
	core.StockStatusCritical: "Stock status is critical: the supply has fallen below the minimum threshold and needs urgent reordering.",
	core.StockStatusOver:     "Stock status is over: the supply exceeds the maximum threshold and there is a surplus on hand.",
	core.StockStatusNormal:   "Stock status is normal: the supply is at a healthy level and covers routine demand.",
}

// Build converts a catalog record into a retrieval document. The text
// repeats category and type for matching quality and closes with the
// status-specific stock sentence.
func Build(record *core.MaterialRecord) core.RetrievalDocument {
	code := fieldOr(record.MaterialNo)
	name := fieldOr(record.Description)
	category := fieldOr(record.Category)
	typ := fieldOr(record.Type)
	uom := fieldOr(record.UOM)

	packagingInfo := Placeholder
	if strings.TrimSpace(record.Packaging) != "" {
		packagingInfo = numOr(record.PackagingUnit) + " " + uom + " per " + record.Packaging
	}

	stockInfo := Placeholder
	if record.Stock != nil {
		stockInfo = formatNumber(*record.Stock) + " " + uom
	}

	var b strings.Builder
	b.WriteString("Material with code " + code + ", named " + name + ", is a " + category + " item of type " + typ + ". ")
	b.WriteString("It belongs to the " + category + " category, " + typ + " type, and is typically used for production or maintenance needs. ")
	b.WriteString("The item is stored on rack " + fieldOr(record.AddressRackName) + " in storage " + fieldOr(record.StorageName) + ", plant " + fieldOr(record.Plant) + ", warehouse " + fieldOr(record.Warehouse) + ". ")
	b.WriteString("Supplied by " + fieldOr(record.Supplier) + ", packed as " + packagingInfo + ", with unit of measure " + uom + ". ")
	b.WriteString("Price per " + uom + ": " + numOr(record.Price) + ", minimum order " + numOr(record.MinOrder) + ". ")
	b.WriteString("Managed under MRP type " + fieldOr(record.MRPType) + ", with minimum stock " + numOr(record.MinStock) + " and maximum stock " + numOr(record.MaxStock) + ". ")
	b.WriteString("The last stock update recorded " + stockInfo + " on " + fieldOr(record.StockUpdatedAt) + " by " + fieldOr(record.StockUpdatedBy) + ". ")
	b.WriteString(statusSentence(record.StockStatus) + " ")
	b.WriteString("It is expected to cover demand for " + numOr(record.LeadShift) + " shifts, about " + numOr(record.LeadTime) + " days.")

	// Collapse all whitespace runs to single spaces.
	text := strings.Join(strings.Fields(b.String()), " ")
	if text == "" {
		text = "Material " + code + " - " + name
	}

	payload := payloadFor(record)
	payload["text"] = text

	return core.RetrievalDocument{Text: text, Payload: payload}
}

// statusSentence maps a stock status value to its elaboration. Unrecognized
// statuses render neutrally.
func statusSentence(status string) string {
	if s, ok := statusSentences[strings.ToLower(strings.TrimSpace(status))]; ok {
		return s
	}
	return "Stock status is " + fieldOr(status) + "."
}

// payloadFor copies the record's fields under the catalog's wire names so
// result rendering can display them without translation. Absent numerics
// stay null rather than zero.
func payloadFor(record *core.MaterialRecord) map[string]any {
	return map[string]any{
		"materialCode":    record.MaterialNo,
		"name":            record.Description,
		"addressRackName": record.AddressRackName,
		"storageName":     record.StorageName,
		"supplier":        record.Supplier,
		"plant":           record.Plant,
		"warehouse":       record.Warehouse,
		"packaging":       record.Packaging,
		"packagingUnit":   numPayload(record.PackagingUnit),
		"uom":             record.UOM,
		"price":           numPayload(record.Price),
		"type":            record.Type,
		"category":        record.Category,
		"minOrder":        numPayload(record.MinOrder),
		"mrpType":         record.MRPType,
		"minStock":        numPayload(record.MinStock),
		"maxStock":        numPayload(record.MaxStock),
		"stock":           numPayload(record.Stock),
		"stockStatus":     record.StockStatus,
		"leadShift":       numPayload(record.LeadShift),
		"leadTime":        numPayload(record.LeadTime),
		"stockUpdatedAt":  record.StockUpdatedAt,
		"stockUpdatedBy":  record.StockUpdatedBy,
	}
}

func fieldOr(v string) string {
	if strings.TrimSpace(v) == "" {
		return Placeholder
	}
	return v
}

func numOr(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return formatNumber(*v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numPayload(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
