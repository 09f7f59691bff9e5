package queue

import (
	"fmt"
	"strings"
	"time"
)

// Run-flag sentinels recognized in the check column. A row whose check cell
// matches any of these is eligible for processing this cycle.
var runFlags = []string{"RUN"}

// FlagRun is the active run marker written by operators.
const FlagRun = "RUN"

// TimestampFormat is the operator-facing timestamp layout used in status
// messages and audit rows.
const TimestampFormat = "02/01/2006 15:04:05"

// FormatTimestamp renders t in the operator-facing layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}

// IsRunFlag reports whether a check-column value is a recognized run flag.
func IsRunFlag(value string) bool {
	for _, flag := range runFlags {
		if value == flag {
			return true
		}
	}
	return false
}

// Directive is one work-queue row: the operator's request to price a
// (skuGroup, denomination) pair, plus optional free-form routing fields
// that redirect the price write to a dynamically resolved cell on another
// sheet. Optional fields are empty strings when blank in the sheet.
type Directive struct {
	SheetID   string
	SheetName string
	Index     int

	CheckFlag       string
	ProductName     string
	Pack            string
	SkuGroup        string
	DenominationKey string

	Price    string
	GameNote string
	Currency string
	Status   string

	FillInFlag       string
	TargetSheetID    string
	TargetSheetName  string
	NoteColumnLetter string
	LookupCode       string
	CodeColumnLetter string
}

// directiveMapping binds Directive fields to their work-queue columns.
var directiveMapping = MustMapping(
	Field{Name: "checkFlag", Column: "B"},
	Field{Name: "productName", Column: "C"},
	Field{Name: "pack", Column: "D"},
	Field{Name: "skuGroup", Column: "E"},
	Field{Name: "denominationKey", Column: "F"},
	Field{Name: "price", Column: "G", Updatable: true},
	Field{Name: "gameNote", Column: "H", Updatable: true},
	Field{Name: "currency", Column: "I", Updatable: true},
	Field{Name: "status", Column: "J", Updatable: true, NoteSink: true},
	Field{Name: "fillInFlag", Column: "K"},
	Field{Name: "targetSheetId", Column: "L"},
	Field{Name: "targetSheetName", Column: "M"},
	Field{Name: "noteColumn", Column: "N"},
	Field{Name: "lookupCode", Column: "O"},
	Field{Name: "codeColumn", Column: "P"},
)

// DirectiveMapping exposes the directive schema table.
func DirectiveMapping() *Mapping {
	return directiveMapping
}

// directiveFromValues reconstructs a directive from per-field cell values.
// Values must already be string-coerced and trimmed.
func directiveFromValues(sheetID, sheetName string, index int, values map[string]string) (Directive, error) {
	d := Directive{
		SheetID:          sheetID,
		SheetName:        sheetName,
		Index:            index,
		CheckFlag:        values["checkFlag"],
		ProductName:      values["productName"],
		Pack:             values["pack"],
		SkuGroup:         values["skuGroup"],
		DenominationKey:  values["denominationKey"],
		Price:            values["price"],
		GameNote:         values["gameNote"],
		Currency:         values["currency"],
		Status:           values["status"],
		FillInFlag:       values["fillInFlag"],
		TargetSheetID:    values["targetSheetId"],
		TargetSheetName:  values["targetSheetName"],
		NoteColumnLetter: values["noteColumn"],
		LookupCode:       values["lookupCode"],
		CodeColumnLetter: values["codeColumn"],
	}

	for _, required := range []struct {
		field string
		value string
	}{
		{field: "checkFlag", value: d.CheckFlag},
		{field: "skuGroup", value: d.SkuGroup},
		{field: "denominationKey", value: d.DenominationKey},
	} {
		if required.value == "" {
			return Directive{}, &RowValidationError{Index: index, Field: required.field, Reason: "is required"}
		}
	}
	return d, nil
}

// updateValue returns the current value of one updatable field.
func (d *Directive) updateValue(name string) any {
	switch name {
	case "price":
		return d.Price
	case "gameNote":
		return d.GameNote
	case "currency":
		return d.Currency
	case "status":
		return d.Status
	default:
		return nil
	}
}

// HasRouting reports whether every free-form routing field is present, i.e.
// the row's write-back target must be resolved dynamically.
func (d *Directive) HasRouting() bool {
	return d.TargetSheetID != "" &&
		d.TargetSheetName != "" &&
		d.NoteColumnLetter != "" &&
		d.LookupCode != "" &&
		d.CodeColumnLetter != ""
}

// AuditRow is one append-only catalog audit record, written once per cycle
// per (skuGroup, denomination) pair and never updated afterwards.
type AuditRow struct {
	Index int

	Sequence        int
	SkuGroup        string
	DenominationKey string
	Price           string
	UpdatedAt       string
}

// auditMapping binds AuditRow fields to the data-sheet columns. Every
// field is written; audit rows are never read back.
var auditMapping = MustMapping(
	Field{Name: "sequence", Column: "A", Updatable: true},
	Field{Name: "skuGroup", Column: "B", Updatable: true},
	Field{Name: "denominationKey", Column: "C", Updatable: true},
	Field{Name: "price", Column: "D", Updatable: true},
	Field{Name: "updatedAt", Column: "E", Updatable: true},
)

// updateValue returns the current value of one updatable field. Sequence
// stays numeric so the sheet receives a number, not text.
func (r *AuditRow) updateValue(name string) any {
	switch name {
	case "sequence":
		return r.Sequence
	case "skuGroup":
		return r.SkuGroup
	case "denominationKey":
		return r.DenominationKey
	case "price":
		return r.Price
	case "updatedAt":
		return r.UpdatedAt
	default:
		return nil
	}
}

// cellString coerces an arbitrary cell value to a trimmed string.
func cellString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}
