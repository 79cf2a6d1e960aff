package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"shoptrends/domain/dataset"
	"shoptrends/internal"
	"shoptrends/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Customer ID,Age,Gender,Item Purchased,Category,Purchase Amount (USD),Location,Size,Color,Season,Review Rating,Subscription Status,Discount Applied,Previous Purchases,Payment Method
1,55,Male,Blouse,Clothing,53,Kentucky,L,Gray,Winter,3.1,Yes,Yes,14,Venmo
2,19,Female,Sweater,Clothing,,Maine,L,Maroon,Winter,,No,No,2,Cash
3,50,Male,Jeans,Clothing,73,Massachusetts,S,,Spring,3.1,Yes,Yes,23,Credit Card
`

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(io.Discard, internal.LogLevelError)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Purchase Amount (USD)":   "Purchase_Amount_USD",
		"Customer ID":             "Customer_ID",
		" Frequency of Purchases": "Frequency_of_Purchases",
		"\ufeffAge":               "Age",
		"Payment_Method":          "Payment_Method",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), "header %q", in)
	}
}

func TestLoadCSVFillsMissingValues(t *testing.T) {
	path := writeFile(t, "shopping_trends.csv", sampleCSV)

	ds, err := NewLoader("", quietLogger()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	first := ds.Record(0)
	assert.Equal(t, 55, first.Age)
	assert.Equal(t, 53.0, first.PurchaseAmountUSD)
	assert.Equal(t, "Venmo", first.PaymentMethod)
	assert.Equal(t, "Blouse", first.Extra[dataset.ColItemPurchased])

	second := ds.Record(1)
	assert.Equal(t, 0.0, second.PurchaseAmountUSD, "empty numeric cell is filled with 0")
	assert.Equal(t, 0.0, second.ReviewRating)

	third := ds.Record(2)
	assert.Equal(t, FillValue, third.Color, "empty text cell is filled with 0")

	assert.True(t, ds.HasColumn(dataset.ColCustomerID))
}

func TestBuildDatasetFillsAbsentColumns(t *testing.T) {
	table := &RawTable{
		Headers: []string{"Age", "Gender"},
		Rows:    []RawRow{{"Age": "30", "Gender": "Female"}},
	}
	result := BuildDataset(table)

	r := result.Dataset.Record(0)
	assert.Equal(t, 30, r.Age)
	assert.Equal(t, FillValue, r.Season)
	assert.Equal(t, 0.0, r.PurchaseAmountUSD)
	assert.Positive(t, result.Filled)
	assert.True(t, result.Dataset.HasColumn(dataset.ColSeason))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader("", quietLogger()).Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeLoadIO, errors.GetCode(err))
}

func TestLoadMalformedCSV(t *testing.T) {
	tests := map[string]string{
		"empty file":    "",
		"ragged rows":   "Age,Gender\n1,Male,extra\n",
		"bare quote":    "Age,Gender\n\"1,Male\n",
		"blank headers": ",,\n1,2,3\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "bad.csv", content)
			_, err := NewLoader("", quietLogger()).Load(context.Background(), path)
			require.Error(t, err)
			assert.Equal(t, errors.CodeParse, errors.GetCode(err))
		})
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Age", "Gender", "Purchase Amount (USD)", "Category", "Season"},
		{42, "Female", 88.5, "Footwear", "Fall"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "trends.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := NewLoader("", quietLogger()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, 42, ds.Record(0).Age)
	assert.Equal(t, 88.5, ds.Record(0).PurchaseAmountUSD)
	assert.Equal(t, "Fall", ds.Record(0).Season)
}

func TestSQLSourceReadTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"Age", "Gender", "Purchase Amount (USD)", "Category", "Season"}).
		AddRow(int64(25), "Male", 40.0, "Clothing", "Summer").
		AddRow(int64(61), []byte("Female"), nil, "Outerwear", "Winter")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM shopping_trends")).WillReturnRows(rows)

	src, err := NewSQLSource(sqlx.NewDb(db, "sqlmock"), "shopping_trends")
	require.NoError(t, err)

	table, err := src.ReadTable(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Purchase_Amount_USD", table.Headers[2])
	assert.Equal(t, "25", table.Rows[0]["Age"])
	assert.Equal(t, "Female", table.Rows[1]["Gender"])
	assert.Equal(t, "", table.Rows[1]["Purchase_Amount_USD"])

	ds := BuildDataset(table).Dataset
	assert.Equal(t, 0.0, ds.Record(1).PurchaseAmountUSD)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSourceRejectsBadTableName(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLSource(sqlx.NewDb(db, "sqlmock"), "trends; DROP TABLE users")
	assert.Error(t, err)
}

func TestSQLSourceImport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS shopping_trends ("Age" TEXT, "Gender" TEXT)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	insert := regexp.QuoteMeta(`INSERT INTO shopping_trends ("Age", "Gender") VALUES (?, ?)`)
	mock.ExpectExec(insert).WithArgs("30", "Male").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).WithArgs("45", "Female").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	src, err := NewSQLSource(sqlx.NewDb(db, "sqlmock"), "shopping_trends")
	require.NoError(t, err)

	n, err := src.Import(context.Background(), &RawTable{
		Headers: []string{"Age", "Gender"},
		Rows:    []RawRow{{"Age": "30", "Gender": "Male"}, {"Age": "45", "Gender": "Female"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeFetcher struct {
	objects map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	body, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.LoadIO("no such object "+key, nil)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestLoadFromObjectStore(t *testing.T) {
	fetcher := &fakeFetcher{objects: map[string]string{"trends/data/shopping_trends.csv": sampleCSV}}
	loader := NewLoader("", quietLogger()).WithFetcher("s3", fetcher)

	ds, err := loader.Load(context.Background(), "s3://trends/data/shopping_trends.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	_, err = loader.Load(context.Background(), "s3://trends/missing.csv")
	assert.Equal(t, errors.CodeLoadIO, errors.GetCode(err))

	_, err = loader.Load(context.Background(), "s3://bucket-only")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestUnsupportedScheme(t *testing.T) {
	_, err := NewLoader("", quietLogger()).Load(context.Background(), "ftp://host/file.csv")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestRedactHidesPassword(t *testing.T) {
	got := redact("postgres://app:secret@db:5432/shop")
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "app@db:5432")
	assert.Equal(t, "./data/shopping_trends.csv", redact("./data/shopping_trends.csv"))
}
