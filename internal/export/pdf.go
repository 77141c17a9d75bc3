package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"messenger/internal/config"
	"messenger/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
)

const (
	thaiFontFamily = "thsarabun"
	coreFontFamily = "Helvetica"
	pageMargin     = 10.0
	reportTitleTH  = "รายงานการจอง Messenger"
	reportTitleEN  = "Messenger Booking Report"
)

type pdfLabels struct {
	FormTitle     string
	Company       string
	Date          string
	Time          string
	Requester     string
	JobType       string
	Messenger     string
	Detail        string
	Department    string
	Building      string
	Floor         string
	ContactName   string
	ContactPhone  string
	Receiver      string
	Sender        string
	SignatureDate string
	Status        string
}

var labelsByLocale = map[models.Locale]pdfLabels{
	models.LocaleTH: {
		FormTitle:     "ใบงาน Messenger",
		Company:       "บริษัท",
		Date:          "วันที่",
		Time:          "เวลา",
		Requester:     "ผู้ขอ",
		JobType:       "ประเภทงาน",
		Messenger:     "Messenger",
		Detail:        "รายละเอียด",
		Department:    "แผนก",
		Building:      "อาคาร",
		Floor:         "ชั้น",
		ContactName:   "ผู้ติดต่อ",
		ContactPhone:  "เบอร์โทร",
		Receiver:      "ผู้รับ",
		Sender:        "ผู้ส่ง",
		SignatureDate: "วันที่",
		Status:        "สถานะ",
	},
	models.LocaleEN: {
		FormTitle:     "Messenger Job Sheet",
		Company:       "Company",
		Date:          "Date",
		Time:          "Time",
		Requester:     "Requester",
		JobType:       "Job type",
		Messenger:     "Messenger",
		Detail:        "Detail",
		Department:    "Department",
		Building:      "Building",
		Floor:         "Floor",
		ContactName:   "Contact",
		ContactPhone:  "Phone",
		Receiver:      "Receiver",
		Sender:        "Sender",
		SignatureDate: "Date",
		Status:        "Status",
	},
}

// Renderer draws report and booking-form documents. It is built once; the
// font is read at construction.
type Renderer struct {
	font   []byte
	locale models.Locale
	logger *zerolog.Logger
}

// NewRenderer loads the configured TTF font. When the font cannot be read the
// renderer falls back to a core font with English labels.
func NewRenderer(cfg config.ExportConfig, logger *zerolog.Logger) *Renderer {
	r := &Renderer{locale: cfg.Locale, logger: logger}
	if r.locale == "" {
		r.locale = models.LocaleTH
	}

	font, err := os.ReadFile(cfg.FontPath)
	if err != nil {
		if logger != nil {
			logger.Warn().Err(err).Str("font_path", cfg.FontPath).Msg("PDF font unavailable, using core font with English labels")
		}
		r.locale = models.LocaleEN
		return r
	}
	r.font = font
	return r
}

// Locale is the label language in effect after font resolution.
func (r *Renderer) Locale() models.Locale {
	return r.locale
}

type document struct {
	pdf       *fpdf.Fpdf
	family    string
	translate func(string) string
	lineScale float64
}

func (r *Renderer) newDocument(orientation string) *document {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)

	doc := &document{pdf: pdf}
	if r.font != nil {
		pdf.AddUTF8FontFromBytes(thaiFontFamily, "", r.font)
		pdf.AddUTF8FontFromBytes(thaiFontFamily, "B", r.font)
		doc.family = thaiFontFamily
		doc.translate = func(s string) string { return s }
		doc.lineScale = 1
	} else {
		doc.family = coreFontFamily
		doc.translate = pdf.UnicodeTranslatorFromDescriptor("")
		doc.lineScale = 0.75
	}
	return doc
}

// setFont sizes are given for the Thai font; core fonts render smaller.
func (d *document) setFont(style string, size float64) {
	d.pdf.SetFont(d.family, style, size*d.lineScale)
}

func (d *document) text(s string) string {
	return d.translate(s)
}

// wrap splits s into lines no wider than width, preferring breaks at spaces
// and breaking inside words when nothing else fits. Returned lines are
// already translated for the active font.
func (d *document) wrap(s string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		lines = append(lines, d.wrapParagraph(para, width)...)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func (d *document) wrapParagraph(s string, width float64) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{""}
	}
	fits := func(from, to int) bool {
		return d.pdf.GetStringWidth(d.text(string(runes[from:to]))) <= width
	}

	var lines []string
	start := 0
	lastSpace := -1
	for i := 0; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			lastSpace = i
		}
		if fits(start, i+1) {
			continue
		}
		cut := i
		if lastSpace > start {
			cut = lastSpace
		}
		if cut == start {
			cut = start + 1
		}
		lines = append(lines, d.text(strings.TrimRight(string(runes[start:cut]), " ")))
		start = cut
		for start < len(runes) && runes[start] == ' ' {
			start++
		}
		lastSpace = -1
		i = start - 1
	}
	if start < len(runes) {
		lines = append(lines, d.text(string(runes[start:])))
	}
	return lines
}

func (r *Renderer) labels() pdfLabels {
	return labelsByLocale[r.locale]
}

type reportColumn struct {
	header string
	width  float64
	value  func(models.BookingWithCompany) string
}

func (r *Renderer) reportColumns() []reportColumn {
	l := r.labels()
	loc := r.locale
	return []reportColumn{
		{l.Date, 22, func(b models.BookingWithCompany) string { return b.BookingDate.Format(models.DisplayDate) }},
		{l.Time, 20, func(b models.BookingWithCompany) string { return b.BookingTime.Label(loc) }},
		{l.Company, 35, func(b models.BookingWithCompany) string { return b.Company.Name }},
		{l.JobType, 25, func(b models.BookingWithCompany) string { return b.JobType }},
		{l.Requester, 28, func(b models.BookingWithCompany) string { return b.RequesterName }},
		{l.Department, 28, func(b models.BookingWithCompany) string { return b.Department }},
		{l.Detail, 52, func(b models.BookingWithCompany) string { return b.Detail }},
		{l.ContactName, 25, func(b models.BookingWithCompany) string { return b.ContactName }},
		{l.ContactPhone, 24, func(b models.BookingWithCompany) string { return b.ContactPhone }},
		{l.Status, 18, func(b models.BookingWithCompany) string { return b.Status.Label(loc) }},
	}
}

// Report renders a landscape A4 table of bookings. The header row repeats on
// every page.
func (r *Renderer) Report(w io.Writer, rows []models.BookingWithCompany) error {
	doc := r.reportDocument(rows)
	if err := doc.pdf.Output(w); err != nil {
		return fmt.Errorf("render report pdf: %w", err)
	}
	return nil
}

func (r *Renderer) reportDocument(rows []models.BookingWithCompany) *document {
	doc := r.newDocument("L")
	pdf := doc.pdf
	cols := r.reportColumns()
	_, pageHeight := pdf.GetPageSize()
	bottom := pageHeight - pageMargin
	lineHeight := 6.0 * doc.lineScale

	title := reportTitleTH
	if r.locale == models.LocaleEN {
		title = reportTitleEN
	}

	pdf.AddPage()
	doc.setFont("B", 18)
	pdf.CellFormat(0, 10, doc.text(title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	drawHeader := func() {
		doc.setFont("B", 14)
		x, y := pdf.GetX(), pdf.GetY()
		for _, c := range cols {
			pdf.SetFillColor(217, 225, 242)
			pdf.Rect(x, y, c.width, lineHeight+2, "FD")
			pdf.SetXY(x, y+1)
			pdf.CellFormat(c.width, lineHeight, doc.text(c.header), "", 0, "C", false, 0, "")
			x += c.width
		}
		pdf.SetXY(pageMargin, y+lineHeight+2)
		doc.setFont("", 14)
	}
	drawHeader()

	for _, row := range rows {
		cells := make([][]string, len(cols))
		maxLines := 1
		for i, c := range cols {
			cells[i] = doc.wrap(c.value(row), c.width-2)
			if len(cells[i]) > maxLines {
				maxLines = len(cells[i])
			}
		}
		rowHeight := float64(maxLines)*lineHeight + 2

		if pdf.GetY()+rowHeight > bottom {
			pdf.AddPage()
			drawHeader()
		}

		x, y := pageMargin, pdf.GetY()
		for i, c := range cols {
			pdf.Rect(x, y, c.width, rowHeight, "D")
			for j, line := range cells[i] {
				pdf.SetXY(x+1, y+1+float64(j)*lineHeight)
				pdf.CellFormat(c.width-2, lineHeight, line, "", 0, "L", false, 0, "")
			}
			x += c.width
		}
		pdf.SetXY(pageMargin, y+rowHeight)
	}
	return doc
}

// BookingForm renders the single-booking job sheet.
func (r *Renderer) BookingForm(w io.Writer, b models.BookingWithCompany) error {
	doc := r.newDocument("P")
	pdf := doc.pdf
	l := r.labels()

	const (
		left       = 15.0
		boxWidth   = 180.0
		labelWidth = 40.0
		rowHeight  = 9.0
	)
	valueWidth := boxWidth - labelWidth
	lineHeight := 7.0 * doc.lineScale

	pdf.AddPage()
	doc.setFont("B", 22)
	pdf.CellFormat(0, 12, doc.text(l.FormTitle), "", 1, "C", false, 0, "")
	doc.setFont("", 14)
	pdf.CellFormat(0, 6, fmt.Sprintf("#%d", b.ID), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	labelRow := func(y float64, label, value string, height float64, maxLines int) {
		pdf.Rect(left, y, labelWidth, height, "D")
		pdf.Rect(left+labelWidth, y, valueWidth, height, "D")
		doc.setFont("B", 14)
		pdf.SetXY(left+2, y+1)
		pdf.CellFormat(labelWidth-4, lineHeight, doc.text(label), "", 0, "L", false, 0, "")
		doc.setFont("", 14)
		lines := doc.wrap(value, valueWidth-4)
		if len(lines) > maxLines {
			lines = lines[:maxLines]
		}
		for i, line := range lines {
			pdf.SetXY(left+labelWidth+2, y+1+float64(i)*lineHeight)
			pdf.CellFormat(valueWidth-4, lineHeight, line, "", 0, "L", false, 0, "")
		}
	}

	messenger := b.MessengerName
	if messenger == "" {
		messenger = "-"
	}

	y := pdf.GetY()
	top := []struct{ label, value string }{
		{l.Company, b.Company.Name},
		{l.Date, b.BookingDate.Format(models.DisplayDate)},
		{l.Time, b.BookingTime.Label(r.locale)},
		{l.Requester, b.RequesterName},
		{l.JobType, b.JobType},
		{l.Messenger, messenger},
	}
	for _, row := range top {
		labelRow(y, row.label, row.value, rowHeight, 1)
		y += rowHeight
	}

	y += 4
	const detailHeight = 50.0
	pdf.Rect(left, y, boxWidth, detailHeight, "D")
	doc.setFont("B", 14)
	pdf.SetXY(left+2, y+1)
	pdf.CellFormat(boxWidth-4, lineHeight, doc.text(l.Detail), "", 0, "L", false, 0, "")
	doc.setFont("", 14)
	maxDetail := int((detailHeight - lineHeight - 2) / lineHeight)
	for i, line := range doc.wrap(b.Detail, boxWidth-4) {
		if i >= maxDetail {
			break
		}
		pdf.SetXY(left+2, y+1+float64(i+1)*lineHeight)
		pdf.CellFormat(boxWidth-4, lineHeight, line, "", 0, "L", false, 0, "")
	}
	y += detailHeight + 4

	deptHeight := 2*lineHeight + 2
	labelRow(y, l.Department, b.Department, deptHeight, 2)
	y += deptHeight
	bottomRows := []struct{ label, value string }{
		{l.Building, b.Building},
		{l.Floor, b.Floor},
		{l.ContactName, b.ContactName},
		{l.ContactPhone, b.ContactPhone},
	}
	for _, row := range bottomRows {
		labelRow(y, row.label, row.value, rowHeight, 1)
		y += rowHeight
	}

	y += 20
	colWidth := boxWidth / 2
	for i, who := range []string{l.Receiver, l.Sender} {
		x := left + float64(i)*colWidth
		pdf.SetXY(x, y)
		pdf.CellFormat(colWidth, lineHeight, doc.text(who)+" ..............................", "", 0, "C", false, 0, "")
		pdf.SetXY(x, y+lineHeight+4)
		pdf.CellFormat(colWidth, lineHeight, doc.text(l.SignatureDate)+" ....../....../......", "", 0, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render booking pdf: %w", err)
	}
	return nil
}
