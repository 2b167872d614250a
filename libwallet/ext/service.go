package ext

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"decred.org/dcrwallet/v2/errors"

	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

type (
	// Service provides access to the contract index, the REST service that
	// lists voting contracts and their balance history.
	Service struct {
		baseURL string
		client  *utils.Client
	}
)

// NewService configures and return a new instance of the index service.
func NewService(baseURL string) *Service {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Service{
		baseURL: baseURL,
		client:  utils.NewClient(),
	}
}

func (s *Service) url(path string) string {
	return fmt.Sprintf("%s%s", s.baseURL, path)
}

// Contracts returns one page of contracts matching query.
func (s *Service) Contracts(ctx context.Context, query *ListQuery) (*ContractList, error) {
	const op errors.Op = "ext.Contracts"

	values := url.Values{}
	if query.Oracle != "" {
		values.Set("oracle", query.Oracle)
	}
	if len(query.States) > 0 {
		values.Set("states", strings.ToLower(strings.Join(query.States, ",")))
	}
	if query.All {
		values.Set("all", "true")
	}
	if query.Own {
		values.Set("owner", query.Oracle)
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.ContinuationToken != "" {
		values.Set("continuationToken", query.ContinuationToken)
	}

	reqConf := &utils.ReqConfig{
		Method:  http.MethodGet,
		HTTPURL: s.url("api/OracleVotingContracts"),
		Query:   values,
	}

	list := &ContractList{}
	if err := s.client.Do(ctx, reqConf, list); err != nil {
		log.Errorf("Error fetching contract list: %v", err)
		return nil, errors.E(op, err)
	}
	log.Debugf("Fetched %d contracts", len(list.Result))
	return list, nil
}

// Contract returns the detail of a single contract as seen by oracle.
func (s *Service) Contract(ctx context.Context, address, oracle string) (*OracleVotingContract, error) {
	const op errors.Op = "ext.Contract"

	values := url.Values{}
	if oracle != "" {
		values.Set("oracle", oracle)
	}
	reqConf := &utils.ReqConfig{
		Method:  http.MethodGet,
		HTTPURL: s.url("api/OracleVotingContract/" + address),
		Query:   values,
	}

	detail := &contractDetail{}
	if err := s.client.Do(ctx, reqConf, detail); err != nil {
		return nil, errors.E(op, err)
	}
	if detail.Result == nil {
		return nil, errors.E(op, errors.NotExist, errors.New(utils.ErrNotExist))
	}
	return detail.Result, nil
}

// BalanceUpdates returns the balance changes caused by contract on address.
func (s *Service) BalanceUpdates(ctx context.Context, address, contract string, limit int, continuationToken string) (*BalanceUpdates, error) {
	const op errors.Op = "ext.BalanceUpdates"

	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if continuationToken != "" {
		values.Set("continuationToken", continuationToken)
	}
	reqConf := &utils.ReqConfig{
		Method:  http.MethodGet,
		HTTPURL: s.url(fmt.Sprintf("api/Address/%s/Contract/%s/BalanceUpdates", address, contract)),
		Query:   values,
	}

	updates := &BalanceUpdates{}
	if err := s.client.Do(ctx, reqConf, updates); err != nil {
		return nil, errors.E(op, err)
	}
	return updates, nil
}
