package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func registerSwaggerRoutes(r chi.Router) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	r.Get("/swagger/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	r.Get("/swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>FCY Ledger API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "FCY Ledger API",
    "version": "1.0.0"
  },
  "security": [{"BasicAuth": []}],
  "paths": {
    "/wallets": {
      "post": {
        "summary": "Create wallet",
        "parameters": [{"$ref": "#/components/parameters/Owner"}],
        "requestBody": {"$ref": "#/components/requestBodies/CreateWallet"},
        "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}, "409": {"description": "Owner already holds this currency"}}
      },
      "get": {
        "summary": "List the caller's wallets",
        "parameters": [{"$ref": "#/components/parameters/Owner"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/wallets/{walletID}/balance": {
      "get": {
        "summary": "Wallet balance",
        "parameters": [{"$ref": "#/components/parameters/Owner"}, {"$ref": "#/components/parameters/WalletID"}],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Wallet not found"}}
      }
    },
    "/wallets/{walletID}/transactions": {
      "get": {
        "summary": "Wallet transactions, newest first",
        "parameters": [{"$ref": "#/components/parameters/Owner"}, {"$ref": "#/components/parameters/WalletID"}, {"$ref": "#/components/parameters/Limit"}, {"$ref": "#/components/parameters/Offset"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/wallets/{walletID}/ledger": {
      "get": {
        "summary": "Wallet ledger entries",
        "parameters": [{"$ref": "#/components/parameters/Owner"}, {"$ref": "#/components/parameters/WalletID"}, {"$ref": "#/components/parameters/Limit"}, {"$ref": "#/components/parameters/Offset"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/wallets/{walletID}/verify": {
      "get": {
        "summary": "Replay the ledger against the stored balance",
        "parameters": [{"$ref": "#/components/parameters/Owner"}, {"$ref": "#/components/parameters/WalletID"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/wallets/{walletID}/deposit": {
      "post": {
        "summary": "Deposit",
        "parameters": [{"$ref": "#/components/parameters/Owner"}, {"$ref": "#/components/parameters/WalletID"}],
        "requestBody": {"$ref": "#/components/requestBodies/Amount"},
        "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}
      }
    },
    "/wallets/{walletID}/withdraw": {
      "post": {
        "summary": "Withdraw",
        "parameters": [{"$ref": "#/components/parameters/Owner"}, {"$ref": "#/components/parameters/WalletID"}],
        "requestBody": {"$ref": "#/components/requestBodies/Amount"},
        "responses": {"200": {"description": "OK"}, "422": {"description": "Insufficient balance"}}
      }
    },
    "/transfers": {
      "post": {
        "summary": "Same-currency transfer",
        "parameters": [{"$ref": "#/components/parameters/Owner"}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {
            "type": "object",
            "required": ["sourceWalletId", "destinationWalletId", "amount"],
            "properties": {
              "sourceWalletId": {"type": "string"},
              "destinationWalletId": {"type": "string"},
              "amount": {"type": "string"},
              "narration": {"type": "string"}
            }
          }}}
        },
        "responses": {"200": {"description": "OK"}, "422": {"description": "Insufficient balance"}}
      }
    },
    "/fx/rates": {
      "get": {
        "summary": "Latest rate per pair",
        "parameters": [{"$ref": "#/components/parameters/Limit"}, {"$ref": "#/components/parameters/Offset"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/fx/rates/{from}/{to}": {
      "get": {
        "summary": "Latest rate for a pair",
        "parameters": [
          {"name": "from", "in": "path", "required": true, "schema": {"type": "string"}},
          {"name": "to", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Rate not found"}}
      }
    },
    "/fx/quote": {
      "get": {
        "summary": "Quote a conversion",
        "parameters": [
          {"name": "amount", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "from", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "to", "in": "query", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Rate not found"}}
      }
    },
    "/fx/convert": {
      "post": {
        "summary": "Convert between the caller's wallets",
        "parameters": [{"$ref": "#/components/parameters/Owner"}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {
            "type": "object",
            "required": ["sourceWalletId", "amount", "fromCurrency", "toCurrency"],
            "properties": {
              "sourceWalletId": {"type": "string"},
              "targetWalletId": {"type": "string"},
              "amount": {"type": "string"},
              "fromCurrency": {"type": "string"},
              "toCurrency": {"type": "string"}
            }
          }}}
        },
        "responses": {"200": {"description": "OK"}, "422": {"description": "Insufficient balance"}}
      }
    },
    "/settlements": {
      "post": {
        "summary": "Initiate an outbound settlement",
        "parameters": [{"$ref": "#/components/parameters/Owner"}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {
            "type": "object",
            "required": ["walletId", "amount"],
            "properties": {
              "walletId": {"type": "string"},
              "bankId": {"type": "string"},
              "amount": {"type": "string"},
              "idempotencyKey": {"type": "string"}
            }
          }}}
        },
        "responses": {"201": {"description": "Created"}, "422": {"description": "Insufficient balance"}}
      },
      "get": {
        "summary": "List settlements",
        "parameters": [{"name": "wallet_id", "in": "query", "schema": {"type": "string"}}, {"$ref": "#/components/parameters/Limit"}, {"$ref": "#/components/parameters/Offset"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/settlements/reconciliation": {
      "get": {
        "summary": "Daily settlement totals by status",
        "parameters": [{"name": "date", "in": "query", "schema": {"type": "string", "format": "date"}}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/settlements/{settlementID}": {
      "get": {
        "summary": "Get settlement",
        "parameters": [{"$ref": "#/components/parameters/SettlementID"}],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Settlement not found"}}
      }
    },
    "/settlements/{settlementID}/logs": {
      "get": {
        "summary": "Settlement reconciliation log",
        "parameters": [{"$ref": "#/components/parameters/SettlementID"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/settlements/{settlementID}/retry": {
      "post": {
        "summary": "Retry a failed settlement",
        "parameters": [{"$ref": "#/components/parameters/SettlementID"}],
        "responses": {"200": {"description": "OK"}, "409": {"description": "Settlement is not failed"}}
      }
    },
    "/webhooks/banks/{bankID}": {
      "post": {
        "summary": "Bank settlement callback",
        "security": [],
        "parameters": [
          {"name": "bankID", "in": "path", "required": true, "schema": {"type": "string"}},
          {"name": "X-Webhook-Secret", "in": "header", "required": true, "schema": {"type": "string"}}
        ],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {
            "type": "object",
            "required": ["status"],
            "properties": {
              "settlementId": {"type": "string"},
              "providerReference": {"type": "string"},
              "status": {"type": "string", "enum": ["pending", "completed", "failed", "reversed"]},
              "failureReason": {"type": "string"}
            }
          }}}
        },
        "responses": {"200": {"description": "OK"}, "401": {"description": "Webhook secret mismatch"}}
      }
    },
    "/cards/{cardID}/charges": {
      "post": {
        "summary": "Card charge against a wallet",
        "parameters": [{"name": "cardID", "in": "path", "required": true, "schema": {"type": "string"}}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {
            "type": "object",
            "required": ["walletId", "amount"],
            "properties": {
              "walletId": {"type": "string"},
              "amount": {"type": "string"},
              "merchant": {"type": "string"},
              "cardLimit": {"type": "string"}
            }
          }}}
        },
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/collections/receipts": {
      "post": {
        "summary": "Inbound collection receipt",
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {
            "type": "object",
            "required": ["walletId", "amount", "rail", "reference"],
            "properties": {
              "walletId": {"type": "string"},
              "amount": {"type": "string"},
              "rail": {"type": "string", "enum": ["nip", "swift", "sepa", "ach", "fps"]},
              "reference": {"type": "string"}
            }
          }}}
        },
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/aml/scan": {
      "post": {
        "summary": "Scan recent transactions",
        "requestBody": {
          "content": {"application/json": {"schema": {
            "type": "object",
            "properties": {"lookbackMinutes": {"type": "integer"}}
          }}}
        },
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/aml/alerts": {
      "get": {
        "summary": "List AML alerts",
        "parameters": [{"$ref": "#/components/parameters/Limit"}, {"$ref": "#/components/parameters/Offset"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/health": {
      "get": {"summary": "Liveness", "security": [], "responses": {"200": {"description": "OK"}}}
    }
  },
  "components": {
    "securitySchemes": {
      "BasicAuth": {"type": "http", "scheme": "basic"}
    },
    "parameters": {
      "Owner": {"name": "X-Owner-ID", "in": "header", "required": true, "schema": {"type": "string"}},
      "WalletID": {"name": "walletID", "in": "path", "required": true, "schema": {"type": "string"}},
      "SettlementID": {"name": "settlementID", "in": "path", "required": true, "schema": {"type": "string"}},
      "Limit": {"name": "limit", "in": "query", "schema": {"type": "integer"}},
      "Offset": {"name": "offset", "in": "query", "schema": {"type": "integer"}}
    },
    "requestBodies": {
      "CreateWallet": {
        "required": true,
        "content": {"application/json": {"schema": {
          "type": "object",
          "required": ["currency"],
          "properties": {"currency": {"type": "string", "example": "USD"}}
        }}}
      },
      "Amount": {
        "required": true,
        "content": {"application/json": {"schema": {
          "type": "object",
          "required": ["amount"],
          "properties": {
            "amount": {"type": "string"},
            "metadata": {"type": "object"}
          }
        }}}
      }
    }
  }
}`
