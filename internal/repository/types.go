package repository

import "time"

// DonationListFilter 查询捐赠单列表的过滤条件
type DonationListFilter struct {
	Page       int
	PageSize   int
	DonorID    uint
	Status     string
	Category   string
	District   string
	ReceiptNo  string
	Keyword    string
	PickupDate *time.Time
}
