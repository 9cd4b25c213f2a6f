package itemshop

// Account is the customer record a purchase is tied to.
type Account struct {
	ID            string
	Name          string
	AccountNumber string
	Industry      string
	Phone         string
}

// Item is a catalog entry as returned by the catalog query.
type Item struct {
	ID       string
	Name     string
	Type     string
	Family   string
	Price    float64
	ImageRef string
}

// HasImage reports whether an image has been attached to the item.
func (i Item) HasImage() bool {
	return i.ImageRef != ""
}

// ItemFilter is the three-field projection shared by the item list and item count queries.
type ItemFilter struct {
	SearchTerm string
	Type       string
	Family     string
}

// ItemMetadata describes catalog-wide configuration.
type ItemMetadata struct {
	DefaultRecordTypeID string
}

// PicklistOption is one selectable value of a categorical filter.
type PicklistOption struct {
	Label string
	Value string
}

// AllOption is the synthetic leading option bound to the empty filter value.
var AllOption = PicklistOption{Label: "All", Value: ""}

// NewItem carries the fields a manager supplies when creating an item.
type NewItem struct {
	Name   string
	Type   string
	Family string
	Price  float64
}

// Picklist field names understood by the catalog backend.
const (
	FieldType   = "Type__c"
	FieldFamily = "Family__c"
)
