package ai

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// TemplateGenerator produces document text by filling clause templates with
// the caller's field values. It stands in for an external drafting model
// behind the same interface, so swapping in a real provider touches nothing
// but the wiring in main.
type TemplateGenerator struct {
	templates map[string]string
}

// NewTemplateGenerator builds a generator with the built-in clause library.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{templates: builtinTemplates}
}

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Generate renders the named template with the provided fields. Unknown
// templates fail; unresolved placeholders are left intact so they are
// visible in the draft rather than silently dropped.
func (g *TemplateGenerator) Generate(_ context.Context, templateID string, fields map[string]any) (string, error) {
	tpl, ok := g.templates[templateID]
	if !ok {
		return "", fmt.Errorf("ai: unknown template %q (known: %s)", templateID, strings.Join(g.TemplateIDs(), ", "))
	}

	out := placeholderRe.ReplaceAllStringFunc(tpl, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if v, ok := fields[key]; ok {
			return fmt.Sprintf("%v", v)
		}
		return match
	})
	return out, nil
}

// TemplateIDs lists the available template identifiers, sorted.
func (g *TemplateGenerator) TemplateIDs() []string {
	ids := make([]string, 0, len(g.templates))
	for id := range g.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var builtinTemplates = map[string]string{
	"nda": `NON-DISCLOSURE AGREEMENT

This Non-Disclosure Agreement is entered into between {{disclosing_party}} (the "Disclosing Party") and {{receiving_party}} (the "Receiving Party"), effective as of {{effective_date}}.

1. Confidential Information. "Confidential Information" means any non-public information disclosed by the Disclosing Party, whether oral, written, or electronic, relating to {{subject_matter}}.

2. Obligations. The Receiving Party shall hold Confidential Information in strict confidence and shall not disclose it to any third party without prior written consent.

3. Term. The obligations in this Agreement remain in force for {{term_years}} years from the effective date.

4. Governing Law. This Agreement is governed by the laws of {{jurisdiction}}.`,

	"lease": `RESIDENTIAL LEASE AGREEMENT

This Lease Agreement is made between {{landlord}} ("Landlord") and {{tenant}} ("Tenant") for the premises located at {{property_address}}.

1. Term. The lease begins on {{start_date}} and ends on {{end_date}}.

2. Rent. Tenant shall pay Landlord monthly rent of {{monthly_rent}}, due on the first day of each month.

3. Security Deposit. Tenant shall deposit {{security_deposit}} with Landlord as security for performance of Tenant's obligations.

4. Use. The premises shall be used solely as a private residence.

5. Governing Law. This Agreement is governed by the laws of {{jurisdiction}}.`,

	"employment": `EMPLOYMENT AGREEMENT

This Employment Agreement is entered into between {{employer}} (the "Company") and {{employee}} (the "Employee"), effective {{start_date}}.

1. Position. The Company employs the Employee in the position of {{position}}.

2. Compensation. The Employee shall receive an annual salary of {{salary}}, payable in accordance with the Company's standard payroll practices.

3. At-Will Employment. Employment under this Agreement is at will and may be terminated by either party with {{notice_period}} written notice.

4. Confidentiality. The Employee agrees not to disclose the Company's confidential information during or after employment.

5. Governing Law. This Agreement is governed by the laws of {{jurisdiction}}.`,

	"will": `LAST WILL AND TESTAMENT

I, {{testator}}, residing at {{address}}, being of sound mind, declare this to be my Last Will and Testament, revoking all prior wills and codicils.

1. Executor. I appoint {{executor}} as the Executor of this Will.

2. Beneficiaries. I give, devise, and bequeath my estate to {{beneficiaries}}.

3. Guardianship. Should any of my children be minors at my death, I appoint {{guardian}} as their guardian.

4. Residue. All remaining property not otherwise disposed of shall pass to {{residuary_beneficiary}}.

Signed on {{date}}.`,

	"service_agreement": `SERVICE AGREEMENT

This Service Agreement is made between {{client}} (the "Client") and {{provider}} (the "Provider"), effective {{effective_date}}.

1. Services. The Provider shall perform the following services: {{services_description}}.

2. Fees. The Client shall pay the Provider {{fee}} according to the following schedule: {{payment_schedule}}.

3. Term and Termination. This Agreement remains in effect until {{end_date}} unless terminated earlier by either party with {{notice_period}} written notice.

4. Independent Contractor. The Provider is an independent contractor, not an employee of the Client.

5. Governing Law. This Agreement is governed by the laws of {{jurisdiction}}.`,
}
