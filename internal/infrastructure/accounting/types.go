package accounting

// Request and response shapes for the QuickBooks Online v3 API. Queries go
// through the SQL-ish /query endpoint; entity writes POST the bare entity
// and get it back wrapped in a field named after the entity type.

type qbRef struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type qbEmail struct {
	Address string `json:"Address"`
}

type qbCustomer struct {
	ID               string   `json:"Id,omitempty"`
	DisplayName      string   `json:"DisplayName"`
	CompanyName      string   `json:"CompanyName,omitempty"`
	PrimaryEmailAddr *qbEmail `json:"PrimaryEmailAddr,omitempty"`
}

type qbCustomerQueryResponse struct {
	QueryResponse struct {
		Customer []qbCustomer `json:"Customer"`
	} `json:"QueryResponse"`
}

type qbCustomerCreateResponse struct {
	Customer qbCustomer `json:"Customer"`
}

type qbSalesItemLineDetail struct {
	ItemRef   *qbRef  `json:"ItemRef,omitempty"`
	UnitPrice float64 `json:"UnitPrice"`
	Qty       int64   `json:"Qty"`
}

type qbInvoiceLine struct {
	DetailType          string                 `json:"DetailType"`
	Amount              float64                `json:"Amount"`
	Description         string                 `json:"Description,omitempty"`
	SalesItemLineDetail *qbSalesItemLineDetail `json:"SalesItemLineDetail,omitempty"`
}

type qbInvoice struct {
	ID          string          `json:"Id,omitempty"`
	DocNumber   string          `json:"DocNumber,omitempty"`
	CustomerRef qbRef           `json:"CustomerRef"`
	Line        []qbInvoiceLine `json:"Line"`
	CurrencyRef *qbRef          `json:"CurrencyRef,omitempty"`
	PrivateNote string          `json:"PrivateNote,omitempty"`
}

type qbInvoiceCreateResponse struct {
	Invoice qbInvoice `json:"Invoice"`
}

type qbFault struct {
	Fault struct {
		Error []struct {
			Message string `json:"Message"`
			Detail  string `json:"Detail"`
			Code    string `json:"code"`
		} `json:"Error"`
	} `json:"Fault"`
}
