// Package notify renders the operator chat message for each stage. One
// submission event produces one message; the three stages project the same
// wire fields differently. Rendering is pure so templates are testable
// without a webhook.
package notify

import (
	"fmt"
	"strings"

	"youareplan-intake/normalize"
	"youareplan-intake/shared"
)

// Missing is rendered for any absent or empty field. Operators read these
// messages on a phone; a literal marker beats a silently skipped line.
const Missing = "미입력"

// Render produces the operator message for a stage from its wire fields.
func Render(stage shared.StageID, f map[string]any) string {
	switch stage {
	case shared.Stage2:
		return renderStage2(f)
	case shared.Stage3:
		return renderStage3(f)
	default:
		return renderStage1(f)
	}
}

func renderStage1(f map[string]any) string {
	var b strings.Builder
	b.WriteString("📋 1차 상담 신청 접수\n")
	fmt.Fprintf(&b, "접수번호: %s\n", field(f, "receipt_no"))
	fmt.Fprintf(&b, "이름: %s / 연락처: %s\n", field(f, "name"), field(f, "phone"))
	fmt.Fprintf(&b, "이메일: %s\n", field(f, "email"))
	fmt.Fprintf(&b, "지역: %s / 업종: %s / 형태: %s\n",
		field(f, "region"), field(f, "industry"), field(f, "business_type"))
	fmt.Fprintf(&b, "직원수: %s / 연매출: %s / 필요자금: %s\n",
		field(f, "employee_count"), field(f, "annual_revenue"), field(f, "funding_amount"))
	fmt.Fprintf(&b, "세금: %s / 신용: %s / 영업상태: %s\n",
		field(f, "tax_status"), field(f, "credit_status"), field(f, "business_status"))
	fmt.Fprintf(&b, "정책자금 경험: %s", field(f, "policy_experience"))
	return b.String()
}

func renderStage2(f map[string]any) string {
	var b strings.Builder
	b.WriteString("📊 2차 진단 제출\n")
	fmt.Fprintf(&b, "접수번호: %s\n", field(f, "parent_receipt_no"))
	fmt.Fprintf(&b, "이름: %s / 연락처: %s\n", field(f, "name"), field(f, "phone"))
	fmt.Fprintf(&b, "회사명: %s / 사업자번호: %s\n", field(f, "company_name"), field(f, "biz_no"))
	fmt.Fprintf(&b, "설립일: %s\n", field(f, "startup_date"))
	fmt.Fprintf(&b, "매출(최근 3개년, 만원): %s / %s / %s\n",
		field(f, "revenue_y1"), field(f, "revenue_y2"), field(f, "revenue_y3"))
	fmt.Fprintf(&b, "자본금: %s / 부채: %s / 부채비율: %s\n",
		field(f, "capital"), field(f, "debt"),
		normalize.DebtRatio(str(f, "capital"), str(f, "debt")))
	fmt.Fprintf(&b, "지식재산권: %s\n", field(f, "ip_rights"))
	fmt.Fprintf(&b, "인증: %s\n", field(f, "certifications"))
	fmt.Fprintf(&b, "자금 용도: %s\n", field(f, "funding_purpose"))
	fmt.Fprintf(&b, "상세: %s", field(f, "funding_narrative"))
	return b.String()
}

func renderStage3(f map[string]any) string {
	var b strings.Builder
	b.WriteString("📝 3차 전문가 상담 기록\n")
	fmt.Fprintf(&b, "접수번호: %s\n", field(f, "receipt_no"))
	fmt.Fprintf(&b, "고객: %s / 연락처: %s\n", field(f, "name"), field(f, "phone"))
	fmt.Fprintf(&b, "담보 현황: %s\n", field(f, "collateral_profile"))
	fmt.Fprintf(&b, "부채/신용 메모: %s\n", field(f, "debt_credit_notes"))
	fmt.Fprintf(&b, "재무/가점 체크: %s\n", field(f, "financial_bonus_check"))
	fmt.Fprintf(&b, "구비 서류: %s\n", field(f, "documents_ready"))
	fmt.Fprintf(&b, "상담 요약: %s", field(f, "consultant_note"))
	return b.String()
}

// field renders one wire value for the operator, or Missing when absent.
func field(f map[string]any, key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return Missing
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return Missing
		}
		return t
	case bool:
		if t {
			return "예"
		}
		return "아니오"
	case []string:
		if len(t) == 0 {
			return Missing
		}
		return strings.Join(t, ", ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// str pulls a raw string value without the Missing substitution, for
// computed aggregates that do their own absence handling.
func str(f map[string]any, key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}
