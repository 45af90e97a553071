package shared

import (
	"strings"
	"unicode/utf8"

	"youareplan-intake/normalize"
)

// UTMKeys are the campaign parameters passed through from the stage-1 URL
// into the sink payload, untouched.
var UTMKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// Stage1Submission is a lead-capture application: applicant contact,
// business profile, the eligibility triad, and the consent pair. ReceiptNo
// is minted client-side before the workflow starts.
type Stage1Submission struct {
	Name             string            `json:"name"`
	Phone            string            `json:"phone"`
	Email            string            `json:"email,omitempty"`
	Region           string            `json:"region"`
	Industry         string            `json:"industry"`
	BusinessType     string            `json:"business_type"`
	EmployeeCount    string            `json:"employee_count"`
	AnnualRevenue    string            `json:"annual_revenue"`
	FundingAmount    string            `json:"funding_amount"`
	TaxStatus        string            `json:"tax_status"`
	CreditStatus     string            `json:"credit_status"`
	BusinessStatus   string            `json:"business_status"`
	PolicyExperience []string          `json:"policy_experience,omitempty"`
	PrivacyConsent   bool              `json:"privacy_consent"`
	MarketingConsent bool              `json:"marketing_consent"`
	UTM              map[string]string `json:"utm,omitempty"`
	ReceiptNo        string            `json:"receipt_no"`
	TestMode         bool              `json:"test_mode,omitempty"`
}

// Normalize rewrites fields into their canonical downstream form.
func (s *Stage1Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Phone = normalize.FormatPhone(s.Phone)
	s.Email = strings.TrimSpace(s.Email)
}

// Validate checks the stage-1 required fields. The first violation is
// returned as a *ValidationError.
func (s *Stage1Submission) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(s.Name)) < 2 {
		return &ValidationError{Field: "name", Kind: ErrTypeValidation, Message: "이름을 2자 이상 입력해 주세요"}
	}
	if !normalize.IsPhoneValid(s.Phone) {
		return &ValidationError{Field: "phone", Kind: ErrTypeValidation, Message: "연락처는 010으로 시작하는 11자리 번호여야 합니다"}
	}
	required := []struct{ field, value string }{
		{"region", s.Region},
		{"industry", s.Industry},
		{"business_type", s.BusinessType},
		{"employee_count", s.EmployeeCount},
		{"annual_revenue", s.AnnualRevenue},
		{"funding_amount", s.FundingAmount},
		{"tax_status", s.TaxStatus},
		{"credit_status", s.CreditStatus},
		{"business_status", s.BusinessStatus},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Kind: ErrTypeValidation, Message: "필수 항목을 선택해 주세요"}
		}
	}
	if !s.PrivacyConsent {
		return &ValidationError{Field: "privacy_consent", Kind: ErrTypeConsentMissing, Message: "개인정보 수집·이용 동의가 필요합니다"}
	}
	return nil
}

// WireFields projects the submission onto sink wire keys. UTM parameters
// are flattened into their own columns.
func (s *Stage1Submission) WireFields() map[string]any {
	f := map[string]any{
		"receipt_no":        s.ReceiptNo,
		"name":              s.Name,
		"phone":             s.Phone,
		"email":             s.Email,
		"region":            s.Region,
		"industry":          s.Industry,
		"business_type":     s.BusinessType,
		"employee_count":    s.EmployeeCount,
		"annual_revenue":    s.AnnualRevenue,
		"funding_amount":    s.FundingAmount,
		"tax_status":        s.TaxStatus,
		"credit_status":     s.CreditStatus,
		"business_status":   s.BusinessStatus,
		"policy_experience": strings.Join(s.PolicyExperience, ", "),
		"privacy_consent":   s.PrivacyConsent,
		"marketing_consent": s.MarketingConsent,
		"test_mode":         s.TestMode,
	}
	for _, k := range UTMKeys {
		f[k] = s.UTM[k]
	}
	return f
}

// Stage2Form is the detailed diagnostic the applicant fills behind the
// magic-token gate. Money fields stay free text end to end; only derived
// aggregates parse them, and tolerantly.
type Stage2Form struct {
	Name             string   `json:"name"`
	Phone            string   `json:"phone"`
	BizNo            string   `json:"biz_no,omitempty"`
	Email            string   `json:"email,omitempty"`
	CompanyName      string   `json:"company_name,omitempty"`
	StartYear        int      `json:"start_year,omitempty"`
	StartMonth       int      `json:"start_month,omitempty"`
	StartDay         int      `json:"start_day,omitempty"`
	RevenueY1        string   `json:"revenue_y1,omitempty"`
	RevenueY2        string   `json:"revenue_y2,omitempty"`
	RevenueY3        string   `json:"revenue_y3,omitempty"`
	Capital          string   `json:"capital,omitempty"`
	Debt             string   `json:"debt,omitempty"`
	IPRights         []string `json:"ip_rights,omitempty"`
	Certifications   []string `json:"certifications,omitempty"`
	Incentives       []string `json:"incentives,omitempty"`
	FundingPurpose   string   `json:"funding_purpose,omitempty"`
	FundingNarrative string   `json:"funding_narrative,omitempty"`
	TaxStatus        string   `json:"tax_status,omitempty"`
	CreditStatus     string   `json:"credit_status,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	PrivacyConsent   bool     `json:"privacy_consent"`
	MarketingConsent bool     `json:"marketing_consent"`
}

// Normalize rewrites fields into their canonical downstream form.
func (s *Stage2Form) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Phone = normalize.FormatPhone(s.Phone)
	s.BizNo = normalize.FormatBizNo(s.BizNo)
	s.Email = strings.TrimSpace(s.Email)
	s.CompanyName = strings.TrimSpace(s.CompanyName)
}

// Validate checks the stage-2 required fields.
func (s *Stage2Form) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(s.Name)) < 2 {
		return &ValidationError{Field: "name", Kind: ErrTypeValidation, Message: "이름을 2자 이상 입력해 주세요"}
	}
	if !normalize.IsPhoneValid(s.Phone) {
		return &ValidationError{Field: "phone", Kind: ErrTypeValidation, Message: "연락처는 010으로 시작하는 11자리 번호여야 합니다"}
	}
	if !normalize.IsBizNoValid(s.BizNo) {
		return &ValidationError{Field: "biz_no", Kind: ErrTypeValidation, Message: "사업자등록번호는 10자리 숫자여야 합니다"}
	}
	if !s.PrivacyConsent {
		return &ValidationError{Field: "privacy_consent", Kind: ErrTypeConsentMissing, Message: "개인정보 수집·이용 동의가 필요합니다"}
	}
	return nil
}

// StartupDate renders the year/month/day controls as YYYY-MM-DD, clamping
// an overflowing day to the end of the month. Empty when no year chosen.
func (s *Stage2Form) StartupDate() string {
	if s.StartYear == 0 {
		return ""
	}
	return normalize.SafeDate(s.StartYear, s.StartMonth, s.StartDay).Format("2006-01-02")
}

// WireFields projects the form onto sink wire keys. The authoritative
// parent_receipt_no and the presented magic_token are attached by the
// stage-2 controller, never here.
func (s *Stage2Form) WireFields() map[string]any {
	return map[string]any{
		"name":              s.Name,
		"phone":             s.Phone,
		"biz_no":            s.BizNo,
		"email":             s.Email,
		"company_name":      s.CompanyName,
		"startup_date":      s.StartupDate(),
		"revenue_y1":        s.RevenueY1,
		"revenue_y2":        s.RevenueY2,
		"revenue_y3":        s.RevenueY3,
		"capital":           s.Capital,
		"debt":              s.Debt,
		"ip_rights":         strings.Join(s.IPRights, ", "),
		"certifications":    strings.Join(s.Certifications, ", "),
		"incentives":        strings.Join(s.Incentives, ", "),
		"funding_purpose":   s.FundingPurpose,
		"funding_narrative": s.FundingNarrative,
		"tax_status":        s.TaxStatus,
		"credit_status":     s.CreditStatus,
		"business_status":   s.BusinessStatus,
		"privacy_consent":   s.PrivacyConsent,
		"marketing_consent": s.MarketingConsent,
	}
}

// Stage3Submission carries the consultant's expert notes, prefilled with
// identity from the earlier stages.
type Stage3Submission struct {
	ReceiptNo           string   `json:"receipt_no"`
	Name                string   `json:"name"`
	Phone               string   `json:"phone,omitempty"`
	UUID                string   `json:"uuid,omitempty"`
	CollateralProfile   string   `json:"collateral_profile,omitempty"`
	DebtCreditNotes     string   `json:"debt_credit_notes,omitempty"`
	FinancialBonusCheck string   `json:"financial_bonus_check,omitempty"`
	DocumentsReady      []string `json:"documents_ready,omitempty"`
	ConsultantNote      string   `json:"consultant_note"`
	Timestamp           string   `json:"timestamp,omitempty"`
}

// Normalize rewrites fields into their canonical downstream form.
func (s *Stage3Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Phone = normalize.FormatPhone(s.Phone)
	s.ConsultantNote = strings.TrimSpace(s.ConsultantNote)
}

// Validate checks the stage-3 required fields: the consultant must identify
// the client and leave a non-empty summary.
func (s *Stage3Submission) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Kind: ErrTypeValidation, Message: "고객명을 입력해 주세요"}
	}
	if strings.TrimSpace(s.ConsultantNote) == "" {
		return &ValidationError{Field: "consultant_note", Kind: ErrTypeValidation, Message: "상담 요약을 입력해 주세요"}
	}
	return nil
}

// WireFields projects the submission onto sink wire keys.
func (s *Stage3Submission) WireFields() map[string]any {
	return map[string]any{
		"receipt_no":            s.ReceiptNo,
		"name":                  s.Name,
		"phone":                 s.Phone,
		"uuid":                  s.UUID,
		"collateral_profile":    s.CollateralProfile,
		"debt_credit_notes":     s.DebtCreditNotes,
		"financial_bonus_check": s.FinancialBonusCheck,
		"documents_ready":       strings.Join(s.DocumentsReady, ", "),
		"consultant_note":       s.ConsultantNote,
		"timestamp":             s.Timestamp,
	}
}
