// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/thor-dao/api/dao"
	"github.com/vechain/thor-dao/api/node"
	"github.com/vechain/thor-dao/api/settlement"
	"github.com/vechain/thor-dao/api/staking"
	"github.com/vechain/thor-dao/api/subscriptions"
	"github.com/vechain/thor-dao/log"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	EnableMetrics   bool
}

// Backend is the node serving the API.
type Backend interface {
	dao.Backend
	staking.Backend
	settlement.Backend
	subscriptions.Backend
	node.Chain
}

// New return api router
func New(backend Backend, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()
	clock := backend.DAO().Clock()

	dao.New(backend).
		Mount(router, "/dao")
	staking.New(backend, clock).
		Mount(router, "/staking")
	settlement.New(backend).
		Mount(router, "/settlement")
	node.New(backend, clock).
		Mount(router, "/node")
	subs := subscriptions.New(backend, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
