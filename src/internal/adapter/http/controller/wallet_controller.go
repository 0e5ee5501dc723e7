package controller

import (
	"fmt"
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/fcy-ledger/src/internal/commons"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

type WalletController struct {
	ledger service_interfaces.LedgerService
}

func NewWalletController(ledger service_interfaces.LedgerService) *WalletController {
	return &WalletController{ledger: ledger}
}

func (c *WalletController) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner)

		r.Post("/wallets", c.createWallet)
		r.Get("/wallets", c.listWallets)
		r.Route("/wallets/{walletID}", func(r chi.Router) {
			r.Get("/balance", c.getBalance)
			r.Get("/transactions", c.listTransactions)
			r.Get("/ledger", c.listLedgerEntries)
			r.Get("/verify", c.verify)
			r.Post("/deposit", c.deposit)
			r.Post("/withdraw", c.withdraw)
		})
		r.Post("/transfers", c.transfer)
	})
}

// ownedWallet loads the path wallet and checks it belongs to the caller.
func ownedWallet(w http.ResponseWriter, r *http.Request, ledger service_interfaces.LedgerService, walletID string) (domain.Wallet, bool) {
	owner, _ := middleware.OwnerFrom(r.Context())
	wallet, err := ledger.GetWallet(r.Context(), walletID)
	if err != nil {
		writeError(w, r, err)
		return domain.Wallet{}, false
	}
	if wallet.OwnerID != owner {
		writeError(w, r, fmt.Errorf("%w: wallet %s does not belong to caller", domain.ErrUnauthorized, walletID))
		return domain.Wallet{}, false
	}
	return wallet, true
}

func (c *WalletController) createWallet(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWalletRequest
	if !decode(w, r, &req) {
		return
	}
	owner, _ := middleware.OwnerFrom(r.Context())

	wallet, err := c.ledger.CreateWallet(r.Context(), owner, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "wallet created", models.NewWalletResponse(wallet))
}

func (c *WalletController) listWallets(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.OwnerFrom(r.Context())
	wallets, err := c.ledger.ListWallets(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "wallets retrieved", models.NewWalletResponses(wallets))
}

func (c *WalletController) getBalance(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	if _, ok := ownedWallet(w, r, c.ledger, walletID); !ok {
		return
	}
	wallet, err := c.ledger.GetBalance(r.Context(), walletID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "balance retrieved", models.NewWalletResponse(wallet))
}

func (c *WalletController) listTransactions(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	if _, ok := ownedWallet(w, r, c.ledger, walletID); !ok {
		return
	}
	page := commons.ParsePage(r.URL.Query())
	txns, err := c.ledger.ListTransactions(r.Context(), walletID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, "transactions retrieved", models.NewTransactionResponses(txns), page)
}

func (c *WalletController) listLedgerEntries(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	if _, ok := ownedWallet(w, r, c.ledger, walletID); !ok {
		return
	}
	page := commons.ParsePage(r.URL.Query())
	entries, err := c.ledger.ListLedgerEntries(r.Context(), walletID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, "ledger entries retrieved", models.NewLedgerEntryResponses(entries), page)
}

func (c *WalletController) verify(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	if _, ok := ownedWallet(w, r, c.ledger, walletID); !ok {
		return
	}
	result, err := c.ledger.VerifyLedger(r.Context(), walletID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "ledger verified", models.NewVerificationResponse(result))
}

func (c *WalletController) deposit(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	var req models.AmountRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := ownedWallet(w, r, c.ledger, walletID); !ok {
		return
	}

	result, err := c.ledger.Deposit(r.Context(), walletID, req.Amount, req.Metadata)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "deposit successful", models.NewLedgerResultResponse(result))
}

func (c *WalletController) withdraw(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	var req models.AmountRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := ownedWallet(w, r, c.ledger, walletID); !ok {
		return
	}

	result, err := c.ledger.Withdraw(r.Context(), walletID, req.Amount, req.Metadata)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "withdrawal successful", models.NewLedgerResultResponse(result))
}

func (c *WalletController) transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := ownedWallet(w, r, c.ledger, req.SourceWalletID); !ok {
		return
	}

	var metadata map[string]any
	if req.Narration != "" {
		metadata = map[string]any{"narration": req.Narration}
	}
	result, err := c.ledger.Transfer(r.Context(), req.SourceWalletID, req.DestinationWalletID, req.Amount, metadata)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "transfer successful", models.NewTransferResponse(result))
}
