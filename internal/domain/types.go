package domain

// PackageID identifies a catalog package. The Arabic display name doubles as
// the identifier, matching how the storefront refers to packages everywhere.
type PackageID string

const (
	// PackageClassic is the three-piece classic package.
	PackageClassic PackageID = "البكج الكلاسك"
	// PackageRoyal is the three-piece royal package.
	PackageRoyal PackageID = "البكج الملكي"
	// PackageAmerican is the three-piece american package.
	PackageAmerican PackageID = "البكج الأمريكي"
)

// CustomizationType selects how designs are applied to the fabric.
type CustomizationType string

const (
	// CustomizationPrint applies designs by printing.
	CustomizationPrint CustomizationType = "طباعة"
	// CustomizationEmbroidery applies designs by embroidery.
	CustomizationEmbroidery CustomizationType = "تطريز"
)

// AddonID identifies an optional extra. As with packages, the display name is
// the identifier.
type AddonID string

const (
	// AddonCapFront adds a design slot on the front of the cap.
	AddonCapFront AddonID = "الجهة الأمامية للقبعة"
	// AddonSleeve adds a design slot on the sleeve.
	AddonSleeve AddonID = "الردن"
)

// ColorOption is a palette entry offered during color selection. Customers may
// also type a free-text color that is not part of any palette.
type ColorOption struct {
	Name string
	Hex  string
}

// ColorSlot names one of the four color choices on an order.
type ColorSlot string

const (
	// ColorSlotRobe is the robe fabric color.
	ColorSlotRobe ColorSlot = "robe"
	// ColorSlotCap is the cap fabric color.
	ColorSlotCap ColorSlot = "cap"
	// ColorSlotSash is the sash fabric color.
	ColorSlotSash ColorSlot = "sash"
	// ColorSlotCustomization is the print/embroidery thread color.
	ColorSlotCustomization ColorSlot = "customization"
)

// ContactField names one of the customer contact attributes.
type ContactField string

const (
	// ContactFieldName is the customer's name.
	ContactFieldName ContactField = "customerName"
	// ContactFieldPhone is the customer's phone number.
	ContactFieldPhone ContactField = "phone"
	// ContactFieldAddress is the delivery address.
	ContactFieldAddress ContactField = "address"
)

// Valid reports whether the field names a known contact attribute.
func (c ContactField) Valid() bool {
	switch c {
	case ContactFieldName, ContactFieldPhone, ContactFieldAddress:
		return true
	}
	return false
}

// FieldTemplate declares a customization slot contributed by a package.
type FieldTemplate struct {
	ID    string
	Label string
}

// Package is an immutable catalog entry describing a purchasable
// configuration: piece count, material, base design slots, and the
// print/embroidery price table.
type Package struct {
	ID          PackageID
	Pieces      string
	Material    string
	Description string
	ImageRef    string
	BaseFields  []FieldTemplate
	Prices      map[CustomizationType]int64
}

// Addon is an immutable catalog entry for an optional extra. Selecting it
// raises the price by the catalog's addon unit price and injects one
// customization field identified by FieldID.
type Addon struct {
	ID      AddonID
	FieldID string
}

// ImageAsset is an opaque reference to an uploaded design image. The core
// never inspects contents; it stores the handle and display name for preview
// and for mention in the order summary.
type ImageAsset struct {
	Handle string
	Name   string
}

// CustomizationField is a live per-order design slot holding one optional
// image and one optional description. Identity is ID; Label may change when
// an addon alters phrasing without the field losing its user input.
type CustomizationField struct {
	ID          string
	Label       string
	Image       *ImageAsset
	Description string
}

// Order is the single mutable record backing a wizard session. Fields and
// TotalPrice are derived state: they are recomputed after every relevant
// mutation and never set directly.
type Order struct {
	PackageID          *PackageID
	CustomizationType  CustomizationType
	Addons             []AddonID
	Fields             []CustomizationField
	RobeColor          string
	CapColor           string
	SashColor          string
	CustomizationColor string
	CustomerName       string
	Phone              string
	Address            string
	TotalPrice         int64
}

// NewOrder returns an order with session-start defaults.
func NewOrder() Order {
	return Order{CustomizationType: CustomizationPrint}
}

// HasAddon reports whether the addon is currently selected.
func (o Order) HasAddon(id AddonID) bool {
	for _, a := range o.Addons {
		if a == id {
			return true
		}
	}
	return false
}

// Color returns the value stored in the named slot.
func (o Order) Color(slot ColorSlot) string {
	switch slot {
	case ColorSlotRobe:
		return o.RobeColor
	case ColorSlotCap:
		return o.CapColor
	case ColorSlotSash:
		return o.SashColor
	case ColorSlotCustomization:
		return o.CustomizationColor
	}
	return ""
}

// Clone produces a deep copy so callers can hand out snapshots without
// exposing the session's backing slices.
func (o Order) Clone() Order {
	out := o
	if o.PackageID != nil {
		id := *o.PackageID
		out.PackageID = &id
	}
	if o.Addons != nil {
		out.Addons = append([]AddonID(nil), o.Addons...)
	}
	if o.Fields != nil {
		out.Fields = make([]CustomizationField, len(o.Fields))
		for i, f := range o.Fields {
			out.Fields[i] = f.Clone()
		}
	}
	return out
}

// Clone deep-copies the field including its image reference.
func (f CustomizationField) Clone() CustomizationField {
	out := f
	if f.Image != nil {
		img := *f.Image
		out.Image = &img
	}
	return out
}
