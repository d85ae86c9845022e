package cli

import (
	"strconv"

	"github.com/odyssey-erp/sealion/internal/procurement"
	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/sales"
	"github.com/odyssey-erp/sealion/internal/view"
	"github.com/odyssey-erp/sealion/internal/warehouse"
)

func id(v int64) string { return strconv.FormatInt(v, 10) }

var productColumns = []view.Column[products.Product]{
	{Header: "ID", Value: func(p products.Product) string { return id(p.ID) }},
	{Header: "CODE", Value: func(p products.Product) string { return p.Code }},
	{Header: "NAME", Value: func(p products.Product) string { return view.Truncate(p.Name, 32) }},
	{Header: "PRICE", Value: func(p products.Product) string { return p.Price.StringFixed(2) }},
	{Header: "STOCK", Value: func(p products.Product) string { return strconv.Itoa(p.Stock) }},
	{Header: "DESCRIPTION", Value: func(p products.Product) string { return view.Truncate(p.Description, 40) }},
}

var stockColumns = []view.Column[warehouse.Record]{
	{Header: "CODE", Value: func(r warehouse.Record) string { return r.ProductCode }},
	{Header: "PRODUCT", Value: func(r warehouse.Record) string { return view.Truncate(r.ProductName, 32) }},
	{Header: "QTY", Value: func(r warehouse.Record) string { return strconv.Itoa(r.Quantity) }},
	{Header: "UPDATED", Value: func(r warehouse.Record) string { return view.FormatDate(r.AddedAt) }},
}

var purchaseColumns = []view.Column[procurement.PurchaseOrder]{
	{Header: "ID", Value: func(po procurement.PurchaseOrder) string { return id(po.ID) }},
	{Header: "NUMBER", Value: func(po procurement.PurchaseOrder) string { return po.Number }},
	{Header: "PRODUCT", Value: func(po procurement.PurchaseOrder) string { return view.Truncate(po.ProductName, 28) }},
	{Header: "SUPPLIER", Value: func(po procurement.PurchaseOrder) string { return view.Truncate(po.Supplier, 24) }},
	{Header: "QTY", Value: func(po procurement.PurchaseOrder) string { return strconv.Itoa(po.Quantity) }},
	{Header: "TOTAL", Value: func(po procurement.PurchaseOrder) string { return po.Total().StringFixed(2) }},
	{Header: "STATUS", Value: func(po procurement.PurchaseOrder) string { return string(po.Status) }},
	{Header: "DATE", Value: func(po procurement.PurchaseOrder) string { return view.FormatDate(po.OrderDate) }},
}

var salesColumns = []view.Column[sales.SalesOrder]{
	{Header: "ID", Value: func(so sales.SalesOrder) string { return id(so.ID) }},
	{Header: "NUMBER", Value: func(so sales.SalesOrder) string { return so.Number }},
	{Header: "CUSTOMER", Value: func(so sales.SalesOrder) string { return view.Truncate(so.CustomerName, 28) }},
	{Header: "UNITS", Value: func(so sales.SalesOrder) string { return strconv.Itoa(so.Units()) }},
	{Header: "TOTAL", Value: func(so sales.SalesOrder) string { return so.TotalAmount.StringFixed(2) }},
	{Header: "DATE", Value: func(so sales.SalesOrder) string { return view.FormatDate(so.OrderDate) }},
}

var salesItemColumns = []view.Column[sales.Item]{
	{Header: "PRODUCT", Value: func(i sales.Item) string { return view.Truncate(i.ProductName, 32) }},
	{Header: "QTY", Value: func(i sales.Item) string { return strconv.Itoa(i.Quantity) }},
	{Header: "PRICE", Value: func(i sales.Item) string { return i.Price.StringFixed(2) }},
	{Header: "SUBTOTAL", Value: func(i sales.Item) string { return i.Subtotal().StringFixed(2) }},
}
