package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "09:30:15", want: ClockTime{9, 30, 15}},
		{in: "09:30", want: ClockTime{9, 30, 0}},
		{in: " 11:59:59 ", want: MorningSlot},
		{in: "24:00", wantErr: true},
		{in: "9:30", wantErr: true},
		{in: "09:60:00", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockTimeLabels(t *testing.T) {
	assert.Equal(t, "ช่วงเช้า", MorningSlot.Label(LocaleTH))
	assert.Equal(t, "ช่วงบ่าย", AfternoonSlot.Label(LocaleTH))
	assert.Equal(t, "ไม่ระบุเวลา", UnspecifiedSlot.Label(LocaleTH))
	assert.Equal(t, "Morning", MorningSlot.Label(LocaleEN))
	assert.Equal(t, "14:05", ClockTime{14, 5, 30}.Label(LocaleTH))
	assert.Equal(t, "14:05:30", ClockTime{14, 5, 30}.String())
	assert.Equal(t, PeriodNone, ClockTime{11, 59, 58}.Period())
}

func TestStatusAndRoleParsing(t *testing.T) {
	s, ok := ParseBookingStatus("SUCCESS")
	assert.True(t, ok)
	assert.Equal(t, StatusSuccess, s)

	_, ok = ParseBookingStatus("success")
	assert.False(t, ok)

	r, ok := ParseRole("ADMIN")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("ROOT")
	assert.False(t, ok)

	assert.Equal(t, "รอดำเนินการ", StatusPending.Label(LocaleTH))
	assert.Equal(t, "ยกเลิก", StatusCancel.Label(""))
	assert.Equal(t, "Success", StatusSuccess.Label(LocaleEN))
}

func TestBookingViewKeepsEveryKey(t *testing.T) {
	date, err := ParseBookingDate("2024-03-01")
	require.NoError(t, err)

	row := BookingWithCompany{
		Booking: Booking{
			ID:          7,
			CompanyID:   2,
			BookingDate: date,
			BookingTime: AfternoonSlot,
			Status:      StatusPending,
			CreatedBy:   1,
			CreatedAt:   time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC),
		},
		Company: Company{ID: 2, Name: "Acme", IsActive: true},
	}

	raw, err := json.Marshal(NewBookingView(row))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{"approved_by", "approved_at", "messenger_name", "messenger", "building", "floor", "company"} {
		_, ok := decoded[key]
		assert.True(t, ok, "missing key %s", key)
	}
	assert.Nil(t, decoded["approved_by"])
	assert.Equal(t, "", decoded["messenger"])
	assert.Equal(t, "16:29", decoded["booking_time"])
	assert.Equal(t, "ช่วงบ่าย", decoded["booking_time_label"])
	assert.Equal(t, "Acme", decoded["company_name"])
	assert.Equal(t, "2024-03-01", decoded["booking_date"])
}

func TestBookingViewApproved(t *testing.T) {
	approver := int64(3)
	at := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	view := NewBookingView(BookingWithCompany{Booking: Booking{
		Status:        StatusSuccess,
		ApprovedBy:    &approver,
		ApprovedAt:    &at,
		MessengerName: "Somchai",
	}})

	require.NotNil(t, view.ApprovedAt)
	assert.Equal(t, "2024-03-02T08:00:00Z", *view.ApprovedAt)
	assert.Equal(t, "Somchai", view.Messenger)
	assert.Equal(t, view.MessengerName, view.Messenger)
}
