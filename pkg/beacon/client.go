package beacon

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm/v5/config/params"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"
	"github.com/sirupsen/logrus"
)

// ErrChainUnavailable marks head/health/state queries that failed because the
// beacon node was unreachable or returned an unparsable response. Callers may
// offer the operator a different endpoint and retry.
var ErrChainUnavailable = errors.New("beacon chain unavailable")

const defaultTimeout = 30 * time.Second

// Client handles interactions with the beacon node
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new beacon API Client instance
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// BaseURL returns the endpoint this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs a GET against the beacon API and returns the response body.
// A non-2xx status comes back as statusErr so callers can distinguish
// "the node answered no" from "the node did not answer".
func (c *Client) get(endpoint string) ([]byte, int, error) {
	requestURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to parse base URL")
	}

	requestURL.Path += endpoint

	urlStr := requestURL.String()

	log.WithField("url", urlStr).Debug("Querying beacon API")

	req, err := http.NewRequest(http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.Wrapf(ErrChainUnavailable, "failed to reach %s: %v", urlStr, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "failed to read response body")
	}

	return body, resp.StatusCode, nil
}

// Health checks that the beacon node is up. 200 and 206 (syncing but
// serving) both count as reachable.
func (c *Client) Health() error {
	_, status, err := c.get("/eth/v1/node/health")
	if err != nil {
		return err
	}

	if status != http.StatusOK && status != http.StatusPartialContent {
		return errors.Wrapf(ErrChainUnavailable, "health endpoint returned status %d", status)
	}

	return nil
}

// Syncing reports whether the beacon node is still syncing.
func (c *Client) Syncing() (bool, error) {
	body, status, err := c.get("/eth/v1/node/syncing")
	if err != nil {
		return false, err
	}

	if status != http.StatusOK {
		return false, errors.Wrapf(ErrChainUnavailable, "syncing endpoint returned status %d", status)
	}

	var result struct {
		Data struct {
			IsSyncing bool `json:"is_syncing"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return false, errors.Wrapf(ErrChainUnavailable, "failed to decode syncing response: %v", err)
	}

	return result.Data.IsSyncing, nil
}

// CurrentEpoch fetches the head slot and converts it to an epoch number
// using the active network's slots-per-epoch.
func (c *Client) CurrentEpoch() (primitives.Epoch, error) {
	body, status, err := c.get("/eth/v1/beacon/headers/head")
	if err != nil {
		return 0, err
	}

	if status != http.StatusOK {
		return 0, errors.Wrapf(ErrChainUnavailable, "head query returned status %d", status)
	}

	var result struct {
		Data struct {
			Header struct {
				Message struct {
					Slot string `json:"slot"`
				} `json:"message"`
			} `json:"header"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return 0, errors.Wrapf(ErrChainUnavailable, "failed to decode head response: %v", err)
	}

	slot, err := strconv.ParseUint(result.Data.Header.Message.Slot, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrChainUnavailable, "unparsable head slot %q", result.Data.Header.Message.Slot)
	}

	epoch := primitives.Epoch(slot / uint64(params.BeaconConfig().SlotsPerEpoch))

	log.WithFields(logrus.Fields{
		"slot":  slot,
		"epoch": epoch,
	}).Debug("Fetched chain head")

	return epoch, nil
}

// Validator queries the chain state for one validator at the current head.
// An identity the chain has never seen returns found=false and no error;
// freshly generated, not-yet-deposited validators land here.
func (c *Client) Validator(pubkey string) (*Validator, bool, error) {
	normalized := NormalizePubkey(pubkey)

	body, status, err := c.get("/eth/v1/beacon/states/head/validators/0x" + normalized)
	if err != nil {
		return nil, false, err
	}

	if status == http.StatusNotFound {
		log.WithField("pubkey", normalized).Debug("Validator not known to the chain")

		return nil, false, nil
	}

	if status != http.StatusOK {
		return nil, false, errors.Wrapf(ErrChainUnavailable, "validator query returned status %d", status)
	}

	var result struct {
		Data struct {
			Index     string `json:"index"`
			Balance   string `json:"balance"`
			Status    string `json:"status"`
			Validator struct {
				Pubkey                string `json:"pubkey"`
				WithdrawalCredentials string `json:"withdrawal_credentials"`
				ActivationEpoch       string `json:"activation_epoch"`
			} `json:"validator"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false, errors.Wrapf(ErrChainUnavailable, "failed to decode validator response: %v", err)
	}

	index, err := strconv.ParseUint(result.Data.Index, 10, 64)
	if err != nil {
		return nil, false, errors.Wrapf(ErrChainUnavailable, "unparsable validator index %q", result.Data.Index)
	}

	balance, err := strconv.ParseUint(result.Data.Balance, 10, 64)
	if err != nil {
		return nil, false, errors.Wrapf(ErrChainUnavailable, "unparsable balance %q", result.Data.Balance)
	}

	activationEpoch, err := strconv.ParseUint(result.Data.Validator.ActivationEpoch, 10, 64)
	if err != nil {
		return nil, false, errors.Wrapf(ErrChainUnavailable, "unparsable activation epoch %q", result.Data.Validator.ActivationEpoch)
	}

	creds, err := hex.DecodeString(strings.TrimPrefix(result.Data.Validator.WithdrawalCredentials, "0x"))
	if err != nil {
		return nil, false, errors.Wrapf(ErrChainUnavailable, "unparsable withdrawal credentials %q", result.Data.Validator.WithdrawalCredentials)
	}

	v := &Validator{
		Pubkey:                normalized,
		Index:                 primitives.ValidatorIndex(index),
		State:                 parseState(result.Data.Status),
		BalanceGwei:           balance,
		ActivationEpoch:       primitives.Epoch(activationEpoch),
		WithdrawalCredentials: creds,
	}

	log.WithFields(logrus.Fields{
		"pubkey": normalized,
		"index":  v.Index,
		"status": v.State.String(),
	}).Debug("Fetched validator state")

	return v, true, nil
}
