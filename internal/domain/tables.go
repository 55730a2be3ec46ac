package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Catalog
	&Category{},
	&Product{},
	// Sales
	&Customer{},
	&Order{},
	&OrderItem{},
}
