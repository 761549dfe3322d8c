package printing

const receiptTemplateName = "receipt"

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Receipt {{.ReceiptNumber}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 11px; color: #222; }
  h1 { font-size: 20px; margin: 0 0 4px 0; }
  .muted { color: #777; }
  .parties { display: flex; justify-content: space-between; margin: 24px 0; }
  table { width: 100%; border-collapse: collapse; }
  th { text-align: left; border-bottom: 1px solid #ccc; padding: 6px 4px; font-weight: 600; }
  td { padding: 6px 4px; border-bottom: 1px solid #eee; }
  .num { text-align: right; white-space: nowrap; }
  .totals { margin-top: 16px; width: 45%; margin-left: auto; }
  .totals td { border: none; padding: 3px 4px; }
  .grand td { border-top: 1px solid #222; font-weight: 600; }
  .paid { margin-top: 24px; padding: 10px; background: #eef7ee; border: 1px solid #b6dcb6; }
</style>
</head>
<body>
  <h1>Receipt {{.ReceiptNumber}}</h1>
  <div class="muted">Issued {{formatDate .IssuedAt}} for invoice {{.InvoiceNumber}} dated {{formatDate .InvoiceIssued}}</div>

  <div class="parties">
    <div>
      <strong>{{.OrgName}}</strong>
      {{- if .OrgTaxID}}<br><span class="muted">Tax ID {{.OrgTaxID}}</span>{{end}}
    </div>
    <div style="text-align:right">
      <strong>{{.CustomerName}}</strong>
      {{- if .CustomerEmail}}<br><span class="muted">{{.CustomerEmail}}</span>{{end}}
    </div>
  </div>

  <table>
    <thead>
      <tr>
        <th>Description</th>
        <th class="num">Qty</th>
        <th class="num">Unit price</th>
        <th class="num">Tax</th>
        <th class="num">Amount</th>
      </tr>
    </thead>
    <tbody>
    {{- range .Lines}}
      <tr>
        <td>{{.Description}}</td>
        <td class="num">{{.Quantity}}{{if .Unit}} {{.Unit}}{{end}}</td>
        <td class="num">{{formatCents .UnitPriceCents $.Currency}}</td>
        <td class="num">{{formatPercent .TaxPercent}}</td>
        <td class="num">{{formatCents .TotalCents $.Currency}}</td>
      </tr>
    {{- end}}
    </tbody>
  </table>

  <table class="totals">
    <tr><td>Subtotal</td><td class="num">{{formatCents .SubtotalCents .Currency}}</td></tr>
    <tr><td>{{default "Tax" .TaxLabel}}</td><td class="num">{{formatCents .TaxCents .Currency}}</td></tr>
    {{- if .DiscountCents}}
    <tr><td>Discount</td><td class="num">-{{formatCents .DiscountCents .Currency}}</td></tr>
    {{- end}}
    <tr class="grand"><td>Total</td><td class="num">{{formatCents .TotalCents .Currency}}</td></tr>
    {{- if .CreditedCents}}
    <tr><td>Credited</td><td class="num">-{{formatCents .CreditedCents .Currency}}</td></tr>
    {{- end}}
    <tr><td>Paid</td><td class="num">{{formatCents .PaidCents .Currency}}</td></tr>
  </table>

  <div class="paid">
    Paid in full{{if .PaymentMethod}} by {{title .PaymentMethod}}{{end}}.
    {{- if .PaymentDetails}}<br><span class="muted">{{.PaymentDetails}}</span>{{end}}
  </div>
</body>
</html>
`

const receiptFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#777;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`
