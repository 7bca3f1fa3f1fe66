package invoice

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/factura-flow/internal/extraction"
)

// multipartUpload builds a batch upload request body
func multipartUpload(date string, files []UploadedFile) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	Expect(writer.WriteField("date", date)).NotTo(HaveOccurred())
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+f.Filename+`"`)
		header.Set("Content-Type", f.ContentType)
		part, err := writer.CreatePart(header)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(f.Data)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(writer.Close()).NotTo(HaveOccurred())
	return body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		extractor   *mockExtractor
		service     *Service
		auth        BasicAuth
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		extractor = newMockExtractor()
		auth = BasicAuth{}
	})

	JustBeforeEach(func() {
		service = NewServiceWithDeps(db, extractor,
			&mockIDGenerator{ids: []string{"id-1", "id-2", "id-3"}},
			&mockTimeSource{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		)
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
			ghttpServer = nil
		}
	})

	Describe("handleIndex", func() {
		It("should return the dashboard page", func() {
			resp, err := http.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("FacturaFlow"))
		})

		When("request method is not GET", func() {
			It("should return status Method Not Allowed", func() {
				resp, err := http.Post(ghttpServer.URL()+"/", "text/plain", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
				resp.Body.Close()
			})
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "admin", Password: "secret"}
		})

		When("credentials are missing", func() {
			It("should return status Unauthorized", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				resp.Body.Close()
			})
		})

		When("credentials are valid", func() {
			It("should serve the request", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/invoices", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("admin:secret")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})
		})
	})

	Describe("handleListInvoices", func() {
		BeforeEach(func() {
			db.records = []*InvoiceRecord{
				{ID: "a", InvoiceNumber: "F-002", Date: "2024-05-01"},
				{ID: "b", InvoiceNumber: "F-001", Date: "2024-04-30"},
			}
		})

		It("should return all records", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var records []*InvoiceRecord
			Expect(json.NewDecoder(resp.Body).Decode(&records)).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})

		When("a date filter is given", func() {
			It("should only return that day's records", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices?date=2024-05-01")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				var records []*InvoiceRecord
				Expect(json.NewDecoder(resp.Body).Decode(&records)).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
				Expect(records[0].InvoiceNumber).To(Equal("F-002"))
			})
		})
	})

	Describe("handleUploadInvoices", func() {
		var (
			files []UploadedFile
			date  string
			resp  *http.Response
		)

		BeforeEach(func() {
			date = "2024-05-01"
			files = []UploadedFile{
				{Filename: "invoice1.jpg", ContentType: "image/jpeg", Data: []byte("img-1")},
			}
			extractor.results["img-1"] = &extraction.InvoiceData{
				InvoiceNumber: "F-001",
				Date:          "2024-05-01",
				CustomerName:  "Maria Lopez",
				CustomerTaxID: "12345678-9",
				TotalExclVAT:  100,
			}
		})

		JustBeforeEach(func() {
			body, contentType := multipartUpload(date, files)
			var err error
			resp, err = http.Post(ghttpServer.URL()+"/api/invoices", contentType, body)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			resp.Body.Close()
		})

		When("the batch is valid", func() {
			It("should return status Created", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			})

			It("should return the added records", func() {
				var uploadResp struct {
					Added   int              `json:"added"`
					Records []*InvoiceRecord `json:"records"`
				}
				Expect(json.NewDecoder(resp.Body).Decode(&uploadResp)).NotTo(HaveOccurred())
				Expect(uploadResp.Added).To(Equal(1))
				Expect(uploadResp.Records[0].InvoiceNumber).To(Equal("F-001"))
			})

			It("should persist the records", func() {
				Expect(db.saved).To(HaveLen(1))
			})
		})

		When("no file has a supported media type", func() {
			BeforeEach(func() {
				files = []UploadedFile{
					{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("text")},
				}
			})

			It("should return status Bad Request with an error body", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
				Expect(body["error"]).To(ContainSubstring("Unsupported file type"))
			})
		})

		When("every record is filtered out", func() {
			BeforeEach(func() {
				extractor.results["img-1"].Date = "2024-04-30"
			})

			It("should return zero added records", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				var uploadResp struct {
					Added   int              `json:"added"`
					Records []*InvoiceRecord `json:"records"`
				}
				Expect(json.NewDecoder(resp.Body).Decode(&uploadResp)).NotTo(HaveOccurred())
				Expect(uploadResp.Added).To(BeZero())
				Expect(uploadResp.Records).To(BeEmpty())
			})
		})

		When("the analysis date is missing", func() {
			BeforeEach(func() {
				date = ""
			})

			It("should return status Bad Request", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleDailyStats", func() {
		BeforeEach(func() {
			db.records = []*InvoiceRecord{
				{
					ID: "a", InvoiceNumber: "F-001", Date: "2024-05-01",
					CustomerTaxID: "c1", SellerName: "Carlos",
					TotalExclVAT: 100, TotalVAT: 19, AmountPaidCash: 119,
					Products: []Product{{Name: "Mouse", Quantity: 2, TotalExclVAT: 100}},
				},
			}
		})

		It("should return the computed statistics", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/stats?date=2024-05-01")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var stats DailyStats
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).NotTo(HaveOccurred())
			Expect(stats.TotalSales).To(Equal(100.0))
			Expect(stats.TotalContado).To(BeNumerically("~", 100.0, 1e-9))
			Expect(stats.BestSeller).To(Equal("Mouse"))
			Expect(stats.SalesBySeller[0].Name).To(Equal("Carlos"))
		})

		When("the date has no records", func() {
			It("should return empty statistics", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/stats?date=1999-01-01")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				var stats DailyStats
				Expect(json.NewDecoder(resp.Body).Decode(&stats)).NotTo(HaveOccurred())
				Expect(stats.TotalSales).To(BeZero())
				Expect(stats.Customers).To(BeEmpty())
			})
		})
	})

	Describe("handleAnnualSeries", func() {
		BeforeEach(func() {
			db.records = []*InvoiceRecord{
				{ID: "a", InvoiceNumber: "F-001", Date: "2025-03-15", TotalExclVAT: 1000},
			}
		})

		It("should return twelve months with ingested 2025 sales added", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/stats/annual")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var series []MonthComparison
			Expect(json.NewDecoder(resp.Body).Decode(&series)).NotTo(HaveOccurred())
			Expect(series).To(HaveLen(12))
			Expect(series[2].Month).To(Equal("Marzo"))
			Expect(series[2].Year2025).To(Equal(40100.0))
		})
	})
})
