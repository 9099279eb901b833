package erp_test

import (
	"errors"
	"testing"
	"time"

	erp "github.com/harborline/erpmetrics/internal/adapters/erp"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildQuery(t *testing.T) {
	Convey("Given a query template with placeholders", t, func() {
		template := "SELECT id FROM transaction WHERE status NOT IN {statuses} AND trandate >= {since} AND total > {floor} AND entityid = {customer}"

		Convey("When every placeholder is bound", func() {
			q, err := erp.BuildQuery(template,
				erp.ListParam("statuses", []string{"Closed", "Cancelled"}),
				erp.DateParam("since", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
				erp.DecimalParam("floor", decimal.NewFromInt(100)),
				erp.StringParam("customer", "ACME Corp"),
			)

			Convey("Then the rendered query should carry typed literals", func() {
				So(err, ShouldBeNil)
				So(q, ShouldContainSubstring, "NOT IN ('Closed', 'Cancelled')")
				So(q, ShouldContainSubstring, "TO_DATE('2024-01-15', 'YYYY-MM-DD')")
				So(q, ShouldContainSubstring, "total > 100")
				So(q, ShouldContainSubstring, "entityid = 'ACME Corp'")
			})
		})

		Convey("When a string value carries a quote", func() {
			q, err := erp.BuildQuery("SELECT id FROM customer WHERE companyname = {name}",
				erp.StringParam("name", "O'Brien Supply"),
			)

			Convey("Then the quote should be doubled, not spliced", func() {
				So(err, ShouldBeNil)
				So(q, ShouldContainSubstring, "'O''Brien Supply'")
			})
		})

		Convey("When a string value carries an injection attempt", func() {
			q, err := erp.BuildQuery("SELECT id FROM customer WHERE companyname = {name}",
				erp.StringParam("name", "x' OR '1'='1"),
			)

			Convey("Then the value should stay inside one literal", func() {
				So(err, ShouldBeNil)
				So(q, ShouldContainSubstring, "'x'' OR ''1''=''1'")
			})
		})

		Convey("When a string value carries control characters", func() {
			q, err := erp.BuildQuery("SELECT id FROM customer WHERE companyname = {name}",
				erp.StringParam("name", "Acme\x00\nCo"),
			)

			Convey("Then control characters should be stripped", func() {
				So(err, ShouldBeNil)
				So(q, ShouldContainSubstring, "'AcmeCo'")
			})
		})

		Convey("When a placeholder has no binding", func() {
			_, err := erp.BuildQuery("SELECT id FROM transaction WHERE status = {status}")

			Convey("Then expansion should fail", func() {
				So(errors.Is(err, erp.ErrUnknownPlaceholder), ShouldBeTrue)
			})
		})

		Convey("When a param has no placeholder", func() {
			_, err := erp.BuildQuery("SELECT id FROM transaction",
				erp.IntParam("limit", 10),
			)

			Convey("Then expansion should fail", func() {
				So(errors.Is(err, erp.ErrUnusedParam), ShouldBeTrue)
			})
		})
	})
}
