package api

import (
	"context"
	"net/http"

	"salesflow/pkg/customer"
	"salesflow/pkg/export"
	"salesflow/pkg/otel"
	"salesflow/pkg/product"
)

type hashResponse struct {
	File   string `json:"arquivo"`
	SHA256 string `json:"sha256"`
}

type csvSource func(ctx context.Context) ([]byte, error)

func (s *Server) customersCSV(ctx context.Context) ([]byte, error) {
	list, err := s.customers.All(ctx)
	if err != nil {
		return nil, err
	}
	return export.CSV(customer.CSVHeader, list)
}

func (s *Server) productsCSV(ctx context.Context) ([]byte, error) {
	list, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}
	return export.CSV(product.CSVHeader, list)
}

// exportHandler serves the table as a CSV download.
// @Summary Export as CSV
// @Tags export
// @Produce text/csv
// @Success 200 {string} string
// @Router /clientes/csv [get]
// @Router /produtos/csv [get]
func (s *Server) exportHandler(name string, src csvSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.AddSpan(r.Context(), "exportHandler")
		defer span.End()

		data, err := src(ctx)
		if err != nil {
			s.fail(ctx, w, "export "+name, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// exportZipHandler serves the CSV compressed in a zip archive.
// @Summary Export as zipped CSV
// @Tags export
// @Produce application/zip
// @Success 200 {file} file
// @Router /clientes/csv/zip [get]
// @Router /produtos/csv/zip [get]
func (s *Server) exportZipHandler(name string, src csvSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.AddSpan(r.Context(), "exportZipHandler")
		defer span.End()

		data, err := src(ctx)
		if err != nil {
			s.fail(ctx, w, "export "+name, err)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.zip"`)
		w.WriteHeader(http.StatusOK)
		if err := export.WriteZip(w, name+".csv", s.now(), data); err != nil {
			s.log.Error(ctx, "write zip", "error", err)
		}
	}
}

// exportHashHandler returns the SHA-256 of the CSV export.
// @Summary Hash of the CSV export
// @Tags export
// @Produce json
// @Success 200 {object} hashResponse
// @Router /clientes/csv/hash [get]
// @Router /produtos/csv/hash [get]
func (s *Server) exportHashHandler(name string, src csvSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.AddSpan(r.Context(), "exportHashHandler")
		defer span.End()

		data, err := src(ctx)
		if err != nil {
			s.fail(ctx, w, "export "+name, err)
			return
		}
		writeJSON(w, http.StatusOK, hashResponse{File: name + ".csv", SHA256: export.Hash(data)})
	}
}
