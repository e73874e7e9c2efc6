// internal/domain/attendance/dto.go
package attendance

// MarkRequest records or updates an attendance mark for one employee.
// Date is "2006-01-02"; when empty the server uses today.
type MarkRequest struct {
	EmployeeID int64    `json:"employee_id" binding:"required"`
	Date       string   `json:"date"`
	Status     Status   `json:"status" binding:"required"`
	CheckInAt  string   `json:"check_in_at"` // RFC3339, optional
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Note       string   `json:"note"`
}

// BulkMarkRequest marks several employees against the same date.
type BulkMarkRequest struct {
	Date  string        `json:"date"`
	Marks []MarkRequest `json:"marks" binding:"required,min=1"`
}

// ListFilter narrows attendance listings.
type ListFilter struct {
	EmployeeID int64
	Date       string // exact day
	From       string
	To         string
	Status     Status
	Limit      int
	Offset     int
}
