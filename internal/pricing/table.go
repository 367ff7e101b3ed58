package pricing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PriceItem is one material and its unit price per square foot.
type PriceItem struct {
	Material  string  `json:"material" yaml:"name"`
	UnitPrice float64 `json:"unitPrice" yaml:"price"`
}

// PriceTable is an ordered list of materials. Order is preserved in every
// estimate breakdown.
type PriceTable []PriceItem

var defaultPriceTable = PriceTable{
	{Material: "2x4 Lumber", UnitPrice: 3.5},
	{Material: "2x6 Lumber", UnitPrice: 4.0},
	{Material: "Sheetrock", UnitPrice: 1.2},
	{Material: "Insulation", UnitPrice: 1.0},
	{Material: "Roof Tiles", UnitPrice: 2.8},
	{Material: "Nails", UnitPrice: 0.1},
	{Material: "Screws", UnitPrice: 0.1},
	{Material: "Large Bolts", UnitPrice: 0.2},
	{Material: "Concrete", UnitPrice: 3.0},
	{Material: "Light Fixtures", UnitPrice: 1.5},
	{Material: "Plumbing Fixtures", UnitPrice: 2.2},
}

// DefaultPriceTable returns a copy of the built-in per-square-foot price table.
func DefaultPriceTable() PriceTable {
	return defaultPriceTable.Clone()
}

// Clone returns an independent copy of the table.
func (t PriceTable) Clone() PriceTable {
	if t == nil {
		return nil
	}
	out := make(PriceTable, len(t))
	copy(out, t)
	return out
}

// Sum returns the sum of all unit prices.
func (t PriceTable) Sum() float64 {
	var sum float64
	for _, item := range t {
		sum += item.UnitPrice
	}
	return sum
}

// Validate checks that the table is non-empty, that every material is named
// exactly once and that every price is finite and not negative.
func (t PriceTable) Validate() error {
	if len(t) == 0 {
		return invalid("priceTable", "must contain at least one material")
	}
	seen := make(map[string]struct{}, len(t))
	for i, item := range t {
		name := strings.TrimSpace(item.Material)
		if name == "" {
			return invalid(fmt.Sprintf("priceTable[%d].material", i), "must not be empty")
		}
		if _, dup := seen[name]; dup {
			return invalid(fmt.Sprintf("priceTable[%d].material", i), fmt.Sprintf("duplicate material %q", name))
		}
		seen[name] = struct{}{}
		if !isFinite(item.UnitPrice) {
			return invalid(fmt.Sprintf("priceTable[%d].unitPrice", i), fmt.Sprintf("%q has non-finite price %v", name, item.UnitPrice))
		}
		if item.UnitPrice < 0 {
			return invalid(fmt.Sprintf("priceTable[%d].unitPrice", i), fmt.Sprintf("%q has negative price %.2f", name, item.UnitPrice))
		}
	}
	return nil
}

type priceTableFile struct {
	Materials PriceTable `yaml:"materials"`
}

// ParsePriceTable decodes a YAML document of the form
//
//	materials:
//	  - name: 2x4 Lumber
//	    price: 3.5
//
// and validates the result.
func ParsePriceTable(data []byte) (PriceTable, error) {
	var doc priceTableFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode price table: %w", err)
	}
	if err := doc.Materials.Validate(); err != nil {
		return nil, err
	}
	return doc.Materials, nil
}

// LoadPriceTable reads and parses a YAML price table file.
func LoadPriceTable(path string) (PriceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table %s: %w", path, err)
	}
	table, err := ParsePriceTable(data)
	if err != nil {
		return nil, fmt.Errorf("price table %s: %w", path, err)
	}
	return table, nil
}
