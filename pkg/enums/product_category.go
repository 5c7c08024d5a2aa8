package enums

import "slices"

// ProductCategory is the closed set of catalog categories shown on the menu.
type ProductCategory string

const (
	ProductCategoryAcai         ProductCategory = "acai"
	ProductCategoryCombo        ProductCategory = "combo"
	ProductCategoryMilkshake    ProductCategory = "milkshake"
	ProductCategoryVitamina     ProductCategory = "vitamina"
	ProductCategorySorvetes     ProductCategory = "sorvetes"
	ProductCategoryBebidas      ProductCategory = "bebidas"
	ProductCategoryComplementos ProductCategory = "complementos"
	ProductCategorySobremesas   ProductCategory = "sobremesas"
	ProductCategoryOutros       ProductCategory = "outros"
)

var validProductCategories = []ProductCategory{
	ProductCategoryAcai,
	ProductCategoryCombo,
	ProductCategoryMilkshake,
	ProductCategoryVitamina,
	ProductCategorySorvetes,
	ProductCategoryBebidas,
	ProductCategoryComplementos,
	ProductCategorySobremesas,
	ProductCategoryOutros,
}

var productCategoryLabels = map[ProductCategory]string{
	ProductCategoryAcai:         "Açaí",
	ProductCategoryCombo:        "Combos",
	ProductCategoryMilkshake:    "Milkshakes",
	ProductCategoryVitamina:     "Vitaminas",
	ProductCategorySorvetes:     "Sorvetes",
	ProductCategoryBebidas:      "Bebidas",
	ProductCategoryComplementos: "Complementos",
	ProductCategorySobremesas:   "Sobremesas",
	ProductCategoryOutros:       "Outros",
}

// ProductCategories returns the categories in menu order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// Label returns the display name used by the admin screens.
func (c ProductCategory) Label() string {
	if label, ok := productCategoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	return slices.Contains(validProductCategories, c)
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	return parseEnum(validProductCategories, "product category", value)
}
