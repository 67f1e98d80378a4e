package rest

import (
	"context"
	"net/http"
	"time"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"
	"coop-backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type InstallmentLister interface {
	List(ctx context.Context, f repository.InstallmentsFilter) ([]domain.Installment, error)
}

type ReceiptLister interface {
	List(ctx context.Context, f repository.ReceiptsFilter) ([]domain.Receipt, error)
}

type Handler struct {
	auth         *service.AuthService
	partners     *service.PartnerService
	loans        *service.LoanService
	payments     *service.PaymentService
	installments InstallmentLister
	receipts     ReceiptLister
	sweeper      *service.SweeperService
	repair       *service.RepairService
	importer     *service.ImportService
	exports      *service.ExportService
}

func NewHandler(
	auth *service.AuthService,
	partners *service.PartnerService,
	loans *service.LoanService,
	payments *service.PaymentService,
	installments InstallmentLister,
	receipts ReceiptLister,
	sweeper *service.SweeperService,
	repair *service.RepairService,
	importer *service.ImportService,
	exports *service.ExportService,
) *Handler {
	return &Handler{
		auth:         auth,
		partners:     partners,
		loans:        loans,
		payments:     payments,
		installments: installments,
		receipts:     receipts,
		sweeper:      sweeper,
		repair:       repair,
		importer:     importer,
		exports:      exports,
	}
}

// InitRouterWithAuth builds the API router. Everything except PIN unlock runs
// behind the session middleware, including the websocket upgrade (its clients
// pass the session token as a query parameter).
func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler, ws http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Post("/auth/unlock", h.unlock)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/partners", func(r chi.Router) {
			r.Get("/", h.listPartners)
			r.Post("/", h.createPartner)
			r.Get("/{partner_id}", h.getPartner)
			r.Put("/{partner_id}", h.updatePartner)
			r.Delete("/{partner_id}", h.deletePartner)
			r.Get("/{partner_id}/loans", h.listPartnerLoans)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/", h.listLoans)
			r.Post("/", h.createLoan)
			r.Get("/{loan_id}", h.getLoan)
			r.Post("/{loan_id}/payments", h.payInstallments)
			r.Post("/{loan_id}/contributions", h.contribute)
		})

		r.Route("/installments", func(r chi.Router) {
			r.Get("/", h.listInstallments)
			r.Post("/settle", h.settlePeriod)
			r.Post("/sweep", h.sweepOverdue)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.listPayments)
			r.Post("/{payment_id}/revert", h.revertPayment)
			r.Post("/repair", h.repairPayments)
		})

		r.Get("/receipts", h.listReceipts)

		r.Route("/imports", func(r chi.Router) {
			r.Post("/partners", h.importPartners)
			r.Post("/loans", h.importLoans)
		})

		r.Route("/exports", func(r chi.Router) {
			r.Get("/", h.listExports)
			r.Get("/{export_id}", h.getExport)
			r.Post("/payments", h.exportPayments)
		})

		if ws != nil {
			r.Get("/ws", ws)
		}
	})

	return r
}
