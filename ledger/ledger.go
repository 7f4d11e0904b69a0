// Package ledger wraps the deployed voting contract behind an exportable
// abstraction, so the session workflow never touches raw bindings.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"voting-kiosk/log"
	"voting-kiosk/models"
)

const (
	dialMaxRetry = 5
	dialRetryGap = 2 * time.Second
)

// votingABI covers both vote shapes plus the read methods. The three-argument
// overload carries a keccak256 commitment of the voter id; contracts deployed
// with that shape reject the two-argument call, which the submitter treats as
// the signal to fall back.
const votingABI = `[
  {"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"constituencyId","type":"uint256"},{"name":"candidateId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"constituencyId","type":"uint256"},{"name":"candidateId","type":"uint256"},{"name":"voterCommitment","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"getResultsFor","stateMutability":"view","inputs":[{"name":"constituencyId","type":"uint256"}],"outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"totalConstituencies","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// Handle holds the bound voting contract and the ethereum client behind it.
type Handle struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
	key      *ecdsa.PrivateKey
	chainID  *big.Int
}

// Dial connects to the ethereum endpoint with a bounded retry and binds the
// voting contract at address. keyHex is the kiosk wallet key used to sign
// vote transactions; it may be empty for read-only handles.
func Dial(ctx context.Context, endpoint, address, keyHex string, chainID int64) (*Handle, error) {
	var (
		client *ethclient.Client
		err    error
	)
	for i := 0; i < dialMaxRetry; i++ {
		client, err = ethclient.DialContext(ctx, endpoint)
		if err == nil {
			break
		}
		log.Warnf("cannot create a client connection: (%s), trying again (%d of %d)", err, i+1, dialMaxRetry)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialRetryGap):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("cannot create a client connection: (%w), tried %d times", err, dialMaxRetry)
	}

	parsed, err := abi.JSON(strings.NewReader(votingABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse voting ABI: %w", err)
	}

	h := &Handle{
		client:  client,
		address: common.HexToAddress(address),
		chainID: big.NewInt(chainID),
	}
	h.contract = bind.NewBoundContract(h.address, parsed, client, client, client)

	if keyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse kiosk wallet key: %w", err)
		}
		h.key = key
	}
	return h, nil
}

// Close releases the underlying client connection.
func (h *Handle) Close() {
	if h.client != nil {
		h.client.Close()
	}
}

// TotalConstituencies reads the number of constituencies the contract tracks.
func (h *Handle) TotalConstituencies(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := h.contract.Call(&bind.CallOpts{Context: ctx}, &out, "totalConstituencies"); err != nil {
		return 0, fmt.Errorf("totalConstituencies call failed: %w", err)
	}
	total := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return total.Uint64(), nil
}

// ResultsFor reads the per-candidate tally of one constituency.
func (h *Handle) ResultsFor(ctx context.Context, constituencyIndex uint64) ([]*big.Int, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := h.contract.Call(opts, &out, "getResultsFor", new(big.Int).SetUint64(constituencyIndex)); err != nil {
		return nil, fmt.Errorf("getResultsFor(%d) call failed: %w", constituencyIndex, err)
	}
	counts := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	return counts, nil
}

// SubmitBallot casts a ballot and waits for inclusion. It first tries the
// two-argument vote; if the contract rejects that call shape it retries with
// the three-argument overload carrying the voter-id commitment, which is the
// legitimate secondary contract shape rather than an error path.
func (h *Handle) SubmitBallot(ctx context.Context, ballot models.Ballot, voterID string) error {
	if h.key == nil {
		return fmt.Errorf("ledger handle is read-only, no wallet key configured")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(h.key, h.chainID)
	if err != nil {
		return fmt.Errorf("failed to build transactor: %w", err)
	}
	// Gas estimation is left on so a revert ("already voted", wrong call
	// shape) surfaces here instead of after mining.
	opts.Context = ctx

	cIdx := new(big.Int).SetUint64(ballot.ConstituencyIndex)
	candIdx := new(big.Int).SetUint64(ballot.CandidateIndex)

	tx, err := h.contract.Transact(opts, "vote", cIdx, candIdx)
	if err != nil {
		if IsBenignDuplicate(err) {
			return err
		}
		log.Debugf("two-argument vote rejected (%v), falling back to committed shape", err)
		commitment := VoterCommitment(voterID)
		tx, err = h.contract.Transact(opts, "vote0", cIdx, candIdx, commitment)
		if err != nil {
			return fmt.Errorf("vote transaction failed: %w", err)
		}
	}

	log.Infof("vote transaction sent: %s", tx.Hash().Hex())
	receipt, err := bind.WaitMined(ctx, h.client, tx)
	if err != nil {
		return fmt.Errorf("failed waiting for vote inclusion: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("vote transaction %s reverted", tx.Hash().Hex())
	}
	log.Infof("vote confirmed in block %d", receipt.BlockNumber.Uint64())
	return nil
}

// VoterCommitment derives the one-way binding of a voter id submitted with
// the three-argument vote shape.
func VoterCommitment(voterID string) [32]byte {
	return crypto.Keccak256Hash([]byte(models.NormalizeVoterID(voterID)))
}

// IsBenignDuplicate classifies a ledger rejection that means the voter has
// already cast a ballot. Callers treat it as success for state purposes: the
// ledger refused a second ballot, which is exactly the invariant wanted.
func IsBenignDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already voted") ||
		strings.Contains(msg, "execution reverted: duplicate vote")
}
