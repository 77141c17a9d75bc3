package models

type Locale string

const (
	LocaleTH Locale = "th"
	LocaleEN Locale = "en"
)

func (l Locale) normalize() Locale {
	if l == LocaleEN {
		return LocaleEN
	}
	return LocaleTH
}

var statusLabels = map[Locale]map[BookingStatus]string{
	LocaleTH: {
		StatusSuccess: "สำเร็จ",
		StatusPending: "รอดำเนินการ",
		StatusCancel:  "ยกเลิก",
	},
	LocaleEN: {
		StatusSuccess: "Success",
		StatusPending: "Pending",
		StatusCancel:  "Cancelled",
	},
}

var periodLabels = map[Locale]map[TimePeriod]string{
	LocaleTH: {
		PeriodMorning:     "ช่วงเช้า",
		PeriodAfternoon:   "ช่วงบ่าย",
		PeriodUnspecified: "ไม่ระบุเวลา",
	},
	LocaleEN: {
		PeriodMorning:     "Morning",
		PeriodAfternoon:   "Afternoon",
		PeriodUnspecified: "Unspecified",
	},
}

// Label returns the localized status label, or the raw value when unknown.
func (s BookingStatus) Label(loc Locale) string {
	if label, ok := statusLabels[loc.normalize()][s]; ok {
		return label
	}
	return string(s)
}
