package mail

import (
	"bytes"
	"html/template"
)

// ReceiptData feeds the fixed donation receipt template.
type ReceiptData struct {
	DonorName       string
	Amount          string // already formatted, e.g. "$25.00"
	CauseName       string
	TransactionID   string
	Acknowledgement string
}

const receiptTpl = `<html>
<body style="font-family: sans-serif; color: #333;">
	<h2>Thank you, {{ .DonorName }}!</h2>
	<p>{{ .Acknowledgement }}</p>
	<table>
		<tr><td>Donation</td><td><strong>{{ .Amount }}</strong></td></tr>
		<tr><td>Cause</td><td>{{ .CauseName }}</td></tr>
		<tr><td>Transaction</td><td>{{ .TransactionID }}</td></tr>
	</table>
	<p>This receipt confirms your donation was received in full.</p>
</body>
</html>`

var receipt = template.Must(template.New("receipt").Parse(receiptTpl))

// RenderReceipt interpolates donation fields into the receipt HTML.
func RenderReceipt(d ReceiptData) (string, error) {
	var buf bytes.Buffer
	if err := receipt.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
