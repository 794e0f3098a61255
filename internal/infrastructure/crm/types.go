package crm

// Request and response shapes for the Zoho CRM v2 REST API. Writes wrap
// records in a single-element "data" array; creates return the new record
// ID under data[0].details.id.

type zohoContact struct {
	LastName    string `json:"Last_Name"`
	Email       string `json:"Email"`
	Phone       string `json:"Phone,omitempty"`
	AccountName string `json:"Account_Name,omitempty"`
}

type zohoContactRef struct {
	ID string `json:"id"`
}

type zohoOrderLine struct {
	ProductCode string  `json:"Product_Code"`
	Description string  `json:"Description"`
	Quantity    int64   `json:"Quantity"`
	ListPrice   float64 `json:"List_Price"`
}

type zohoSalesOrder struct {
	Subject       string          `json:"Subject"`
	ContactName   zohoContactRef  `json:"Contact_Name"`
	Status        string          `json:"Status,omitempty"`
	GrandTotal    float64         `json:"Grand_Total"`
	Currency      string          `json:"Currency,omitempty"`
	PONumber      string          `json:"Purchase_Order,omitempty"`
	PaymentMethod string          `json:"Payment_Method,omitempty"`
	OrderedItems  []zohoOrderLine `json:"Ordered_Items,omitempty"`
}

type zohoLead struct {
	LastName    string  `json:"Last_Name"`
	Email       string  `json:"Email"`
	Company     string  `json:"Company,omitempty"`
	Phone       string  `json:"Phone,omitempty"`
	Description string  `json:"Description,omitempty"`
	LeadSource  string  `json:"Lead_Source,omitempty"`
	LeadStatus  string  `json:"Lead_Status,omitempty"`
	AnnualValue float64 `json:"Annual_Revenue,omitempty"`
}

type zohoWriteRequest[T any] struct {
	Data []T `json:"data"`
}

type zohoWriteDetails struct {
	ID string `json:"id"`
}

type zohoWriteResult struct {
	Code    string           `json:"code"`
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Details zohoWriteDetails `json:"details"`
}

type zohoWriteResponse struct {
	Data []zohoWriteResult `json:"data"`
}

type zohoSearchRecord struct {
	ID string `json:"id"`
}

type zohoSearchResponse struct {
	Data []zohoSearchRecord `json:"data"`
}
