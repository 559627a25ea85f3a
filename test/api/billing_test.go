package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPatient(t *testing.T) string {
	t.Helper()
	resp := makeRequest("POST", "/patients", map[string]interface{}{
		"first_name": "Ada",
		"last_name":  uniqueName("Obi"),
		"phone":      "08030000001",
		"gender":     "female",
	}, authToken)
	require.True(t, resp.Success, "failed to register patient: %s", resp.Error)
	return resp.GetString("id")
}

func createCatalogTest(t *testing.T, name string, price float64) string {
	t.Helper()
	resp := makeRequest("POST", "/catalog/tests", map[string]interface{}{
		"code":     uniqueName("TST"),
		"name":     name,
		"category": "laboratory",
		"price":    price,
	}, authToken)
	require.True(t, resp.Success, "failed to create catalog test: %s", resp.Error)
	return resp.GetString("id")
}

func TestBillingFlow(t *testing.T) {
	patientID := createTestPatient(t)
	fbc := createCatalogTest(t, "Full Blood Count", 1000)
	cxr := createCatalogTest(t, "Chest X-Ray", 2000)

	// Create the invoice with a 10% discount.
	createResp := makeRequest("POST", "/billing/invoices", map[string]interface{}{
		"patient_id": patientID,
		"items": []map[string]string{
			{"test_id": fbc},
			{"test_id": cxr},
		},
		"discount_percentage": 10,
	}, authToken)
	require.True(t, createResp.Success, "failed to create invoice: %s", createResp.Error)
	invoiceID := createResp.GetString("id")
	require.NotEmpty(t, invoiceID)

	assert.Equal(t, "unpaid", createResp.GetString("payment_status"))
	assert.Equal(t, "3000", createResp.GetString("subtotal"))
	assert.Equal(t, "300", createResp.GetString("discount_amount"))
	assert.Equal(t, "2700", createResp.GetString("total_amount"))
	assert.NotEmpty(t, createResp.GetString("invoice_number"))

	// Collect cash payment.
	payResp := makeRequest("POST", fmt.Sprintf("/billing/invoices/%s/pay", invoiceID), map[string]interface{}{
		"payment_method": "cash",
	}, authToken)
	require.True(t, payResp.Success, "failed to pay invoice: %s", payResp.Error)
	assert.Equal(t, "paid", payResp.GetString("payment_status"))
	assert.Equal(t, "cash", payResp.GetString("payment_method"))
	assert.NotEmpty(t, payResp.GetString("paid_at"))

	// A second payment attempt must conflict and leave the invoice paid.
	retryResp := makeRequest("POST", fmt.Sprintf("/billing/invoices/%s/pay", invoiceID), map[string]interface{}{
		"payment_method": "cash",
	}, authToken)
	assert.False(t, retryResp.Success)
	assert.Equal(t, http.StatusConflict, retryResp.StatusCode)

	getResp := makeRequest("GET", fmt.Sprintf("/billing/invoices/%s", invoiceID), nil, authToken)
	require.True(t, getResp.Success)
	assert.Equal(t, "paid", getResp.GetString("payment_status"))
}

func TestVoidFlow(t *testing.T) {
	patientID := createTestPatient(t)
	testID := createCatalogTest(t, "Malaria Parasite Smear", 800)

	createResp := makeRequest("POST", "/billing/invoices", map[string]interface{}{
		"patient_id": patientID,
		"items":      []map[string]string{{"test_id": testID}},
	}, authToken)
	require.True(t, createResp.Success, "failed to create invoice: %s", createResp.Error)
	invoiceID := createResp.GetString("id")

	voidResp := makeRequest("POST", fmt.Sprintf("/billing/invoices/%s/void", invoiceID), map[string]interface{}{
		"reason": "duplicate order",
	}, authToken)
	require.True(t, voidResp.Success, "failed to void invoice: %s", voidResp.Error)
	assert.Equal(t, "voided", voidResp.GetString("payment_status"))

	// Voided invoices cannot be paid.
	payResp := makeRequest("POST", fmt.Sprintf("/billing/invoices/%s/pay", invoiceID), map[string]interface{}{
		"payment_method": "cash",
	}, authToken)
	assert.False(t, payResp.Success)
	assert.Equal(t, http.StatusConflict, payResp.StatusCode)
}

func TestCardPaymentRequiresDetails(t *testing.T) {
	patientID := createTestPatient(t)
	testID := createCatalogTest(t, "Electrocardiogram", 3000)

	createResp := makeRequest("POST", "/billing/invoices", map[string]interface{}{
		"patient_id": patientID,
		"items":      []map[string]string{{"test_id": testID}},
	}, authToken)
	require.True(t, createResp.Success)
	invoiceID := createResp.GetString("id")

	bare := makeRequest("POST", fmt.Sprintf("/billing/invoices/%s/pay", invoiceID), map[string]interface{}{
		"payment_method": "card",
	}, authToken)
	assert.False(t, bare.Success)
	assert.Equal(t, http.StatusBadRequest, bare.StatusCode)

	full := makeRequest("POST", fmt.Sprintf("/billing/invoices/%s/pay", invoiceID), map[string]interface{}{
		"payment_method":  "card",
		"card_last_four":  "4242",
		"transaction_ref": uniqueName("TXN"),
	}, authToken)
	assert.True(t, full.Success, "card payment with details should succeed: %s", full.Error)
}

func TestSessionIntrospection(t *testing.T) {
	routesResp := makeRequest("GET", "/auth/me/routes", nil, authToken)
	require.True(t, routesResp.Success)
	assert.Contains(t, routesResp.RawData, `"/"`)

	roleResp := makeRequest("GET", "/auth/me/role", nil, authToken)
	require.True(t, roleResp.Success)
	assert.NotEmpty(t, roleResp.GetString("level"))
}
