package models

// BookingView is the JSON projection of a booking. Every key is always
// present; unset optional values are null or the empty string.
type BookingView struct {
	ID               int64         `json:"id"`
	CompanyID        int64         `json:"company_id"`
	CompanyName      string        `json:"company_name"`
	Company          *Company      `json:"company"`
	BookingDate      string        `json:"booking_date"`
	BookingTime      string        `json:"booking_time"`
	BookingTimeLabel string        `json:"booking_time_label"`
	RequesterName    string        `json:"requester_name"`
	JobType          string        `json:"job_type"`
	Detail           string        `json:"detail"`
	Department       string        `json:"department"`
	Building         string        `json:"building"`
	Floor            string        `json:"floor"`
	ContactName      string        `json:"contact_name"`
	ContactPhone     string        `json:"contact_phone"`
	Status           BookingStatus `json:"status"`
	CreatedBy        int64         `json:"created_by"`
	ApprovedBy       *int64        `json:"approved_by"`
	ApprovedAt       *string       `json:"approved_at"`
	MessengerName    string        `json:"messenger_name"`
	Messenger        string        `json:"messenger"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

func NewBookingView(b BookingWithCompany) BookingView {
	company := b.Company
	view := BookingView{
		ID:               b.ID,
		CompanyID:        b.CompanyID,
		CompanyName:      company.Name,
		Company:          &company,
		BookingDate:      b.BookingDate.Format(DateLayout),
		BookingTime:      b.BookingTime.Short(),
		BookingTimeLabel: b.BookingTime.Label(LocaleTH),
		RequesterName:    b.RequesterName,
		JobType:          b.JobType,
		Detail:           b.Detail,
		Department:       b.Department,
		Building:         b.Building,
		Floor:            b.Floor,
		ContactName:      b.ContactName,
		ContactPhone:     b.ContactPhone,
		Status:           b.Status,
		CreatedBy:        b.CreatedBy,
		ApprovedBy:       b.ApprovedBy,
		MessengerName:    b.MessengerName,
		Messenger:        b.MessengerName,
		CreatedAt:        b.CreatedAt.Format(TimestampLayout),
		UpdatedAt:        b.UpdatedAt.Format(TimestampLayout),
	}
	if b.ApprovedAt != nil {
		at := b.ApprovedAt.Format(TimestampLayout)
		view.ApprovedAt = &at
	}
	return view
}

func NewBookingViews(rows []BookingWithCompany) []BookingView {
	views := make([]BookingView, 0, len(rows))
	for _, r := range rows {
		views = append(views, NewBookingView(r))
	}
	return views
}
