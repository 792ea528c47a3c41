package domain

import "slices"

// Category 商品分类，子分类为厂商名
type Category struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"subCategories"`
}

// HasSubCategory 子分类是否属于该分类
func (c *Category) HasSubCategory(name string) bool {
	return slices.Contains(c.SubCategories, name)
}
