package booking

// Field names a booking form input. The values double as JSON keys.
type Field string

const (
	FieldName            Field = "name"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldServiceCategory Field = "serviceCategory"
	FieldService         Field = "service"
	FieldLocationType    Field = "locationType"
	FieldDistance        Field = "distance"
	FieldDate            Field = "date"
	FieldMessage         Field = "message"
)

// FormFields is every field the form renders, in display order.
var FormFields = []Field{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldServiceCategory,
	FieldService,
	FieldLocationType,
	FieldDistance,
	FieldDate,
	FieldMessage,
}

// Location types.
const (
	LocationOurs   = "our-location"
	LocationMobile = "mobile"
)

// CustomPackage is the package selected for categories without fixed
// packages (free-form enquiries).
const CustomPackage = "custom"

// Values is a form snapshot: field -> raw input.
type Values map[Field]string

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, s := range v {
		out[k] = s
	}
	return out
}

// Errors maps a field to its current validation message.
type Errors map[Field]string
