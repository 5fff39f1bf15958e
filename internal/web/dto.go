package web

import (
	"github.com/JonMunkholm/records/internal/record"
)

// EntityDTO is the JSON shape of a record.
type EntityDTO struct {
	ID            *int64            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	CustomColumns []CustomColumnDTO `json:"customColumns"`
}

// CustomColumnDTO is the JSON shape of a custom attribute.
type CustomColumnDTO struct {
	Name                   string `json:"name"`
	Value                  string `json:"value"`
	ColumnType             string `json:"columnType"`
	Required               bool   `json:"required"`
	ValidationPattern      string `json:"validationPattern,omitempty"`
	ValidationErrorMessage string `json:"validationErrorMessage,omitempty"`
	Options                string `json:"options,omitempty"`
}

func toDTO(rec record.Record) EntityDTO {
	dto := EntityDTO{
		ID:            rec.ID,
		Name:          rec.Name,
		Description:   rec.Description,
		CustomColumns: make([]CustomColumnDTO, len(rec.Attributes)),
	}
	for i, a := range rec.Attributes {
		dto.CustomColumns[i] = CustomColumnDTO{
			Name:                   a.Name,
			Value:                  a.Value,
			ColumnType:             a.Type.OrDefault().String(),
			Required:               a.Required,
			ValidationPattern:      a.ValidationPattern,
			ValidationErrorMessage: a.ValidationMessage,
			Options:                a.Options,
		}
	}
	return dto
}

func toDTOs(recs []record.Record) []EntityDTO {
	out := make([]EntityDTO, len(recs))
	for i, rec := range recs {
		out[i] = toDTO(rec)
	}
	return out
}

// toRecord converts a submitted DTO. Unknown column types are reported as
// validation errors alongside anything Validate finds later.
func (d EntityDTO) toRecord() (record.Record, error) {
	rec := record.Record{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
	}

	var errs record.ValidationErrors
	for _, c := range d.CustomColumns {
		t, err := record.ParseAttributeType(c.ColumnType)
		if err != nil {
			errs = append(errs, record.ValidationError{Field: c.Name, Value: c.ColumnType, Message: err.Error()})
			continue
		}
		rec.Attributes = append(rec.Attributes, record.CustomAttribute{
			Name:              c.Name,
			Value:             c.Value,
			Type:              t,
			Required:          c.Required,
			ValidationPattern: c.ValidationPattern,
			ValidationMessage: c.ValidationErrorMessage,
			Options:           c.Options,
		})
	}
	if len(errs) > 0 {
		return record.Record{}, errs
	}
	return rec, nil
}
