package writer

import cbigquery "cloud.google.com/go/bigquery"

// SalesPartitionField is the column the sales table is partitioned on.
const SalesPartitionField = "occurred_at"

// SalesSchema is the column layout of the sales table. Field names follow the
// bigquery tags on types.SaleRow.
func SalesSchema() cbigquery.Schema {
	return cbigquery.Schema{
		{Name: "event_id", Type: cbigquery.StringFieldType, Required: true},
		{Name: "sale_id", Type: cbigquery.StringFieldType, Required: true},
		{Name: "register_id", Type: cbigquery.StringFieldType, Required: true},
		{Name: "operator_id", Type: cbigquery.StringFieldType},
		{Name: "channel", Type: cbigquery.StringFieldType, Required: true},
		{Name: "payment_type", Type: cbigquery.StringFieldType, Required: true},
		{Name: "sale_date", Type: cbigquery.StringFieldType, Required: true, Description: "business day, YYYY-MM-DD in the store timezone"},
		{Name: "occurred_at", Type: cbigquery.TimestampFieldType, Required: true},
		{Name: "subtotal_cents", Type: cbigquery.IntegerFieldType, Required: true},
		{Name: "discount_cents", Type: cbigquery.IntegerFieldType, Required: true},
		{Name: "total_cents", Type: cbigquery.IntegerFieldType, Required: true},
		{Name: "change_cents", Type: cbigquery.IntegerFieldType, Required: true},
		{Name: "split_parts", Type: cbigquery.IntegerFieldType, Required: true},
		{Name: "item_count", Type: cbigquery.IntegerFieldType, Required: true},
		{
			Name:     "items",
			Type:     cbigquery.RecordFieldType,
			Repeated: true,
			Schema: cbigquery.Schema{
				{Name: "product_id", Type: cbigquery.StringFieldType},
				{Name: "product_name", Type: cbigquery.StringFieldType},
				{Name: "quantity", Type: cbigquery.IntegerFieldType},
				{Name: "weight_kg", Type: cbigquery.FloatFieldType},
				{Name: "subtotal_cents", Type: cbigquery.IntegerFieldType},
			},
		},
		{Name: "payload", Type: cbigquery.JSONFieldType},
	}
}
