package chain

import (
	"context"
	"encoding/json"

	"decred.org/dcrwallet/v2/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/crypto-power/oraclevoting/libwallet/utils"
)

const apiKeyHeader = "X-Api-Key"

// RPCNode talks to a node over JSON-RPC. Transactions are signed by the
// configured Signer and pushed as raw bytes; without a Signer the node signs
// them with its own coinbase key.
type RPCNode struct {
	client *rpc.Client
	signer Signer
}

var _ Node = (*RPCNode)(nil)

// Dial connects to the node JSON-RPC endpoint at url.
func Dial(ctx context.Context, url, apiKey string, signer Signer) (*RPCNode, error) {
	const op errors.Op = "chain.Dial"

	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.E(op, err)
	}
	if apiKey != "" {
		client.SetHeader(apiKeyHeader, apiKey)
	}

	return &RPCNode{client: client, signer: signer}, nil
}

// Close closes the underlying connection.
func (n *RPCNode) Close() {
	n.client.Close()
}

type lastBlock struct {
	Height uint64 `json:"height"`
}

type globalState struct {
	NetworkSize int `json:"networkSize"`
}

type readonlyCallArgs struct {
	Contract string    `json:"contract"`
	Method   string    `json:"method"`
	Args     []CallArg `json:"args,omitempty"`
}

// EstimateTx dry-runs tx. Contract level failures are reported through
// Estimate.Error, not the returned error.
func (n *RPCNode) EstimateTx(ctx context.Context, tx *ContractTx) (*Estimate, error) {
	var method string
	switch tx.Type {
	case DeployContractTx:
		method = "contract_estimateDeploy"
	case TerminateContractTx:
		method = "contract_estimateTerminate"
	case TransferTx:
		method = "bcn_estimateTx"
	default:
		method = "contract_estimateCall"
	}

	estimate := &Estimate{}
	if err := n.client.CallContext(ctx, estimate, method, tx); err != nil {
		return nil, err
	}
	return estimate, nil
}

// SendTx submits tx and returns its hash.
func (n *RPCNode) SendTx(ctx context.Context, tx *ContractTx) (string, error) {
	var hash string
	if n.signer != nil {
		raw, err := n.signer.SignTx(ctx, tx)
		if err != nil {
			return "", err
		}
		if err := n.client.CallContext(ctx, &hash, "bcn_sendRawTx", hexutil.Encode(raw)); err != nil {
			return "", err
		}
		log.Debugf("Sent raw %s tx %s", tx.Type, hash)
		return hash, nil
	}

	var method string
	switch tx.Type {
	case DeployContractTx:
		method = "contract_deploy"
	case TerminateContractTx:
		method = "contract_terminate"
	case TransferTx:
		method = "dna_sendTransaction"
	default:
		method = "contract_call"
	}

	if err := n.client.CallContext(ctx, &hash, method, tx); err != nil {
		return "", err
	}
	log.Debugf("Sent %s tx %s", tx.Type, hash)
	return hash, nil
}

// TxStatus returns the node's view of the transaction with the given hash.
// A transaction the node does not know fails with utils.ErrNotExist.
func (n *RPCNode) TxStatus(ctx context.Context, hash string) (*TxStatus, error) {
	const op errors.Op = "chain.TxStatus"

	var status *TxStatus
	if err := n.client.CallContext(ctx, &status, "bcn_transaction", hash); err != nil {
		return nil, err
	}
	if status == nil || status.BlockHash == "" {
		return nil, errors.E(op, errors.New(utils.ErrNotExist))
	}
	return status, nil
}

// BlockHeight returns the height of the node's best block.
func (n *RPCNode) BlockHeight(ctx context.Context) (uint64, error) {
	var block lastBlock
	if err := n.client.CallContext(ctx, &block, "bcn_lastBlock"); err != nil {
		return 0, err
	}
	return block.Height, nil
}

// Call runs a read-only contract method.
func (n *RPCNode) Call(ctx context.Context, contract, method string, args ...CallArg) (json.RawMessage, error) {
	var result json.RawMessage
	err := n.client.CallContext(ctx, &result, "contract_readonlyCall", readonlyCallArgs{
		Contract: contract,
		Method:   method,
		Args:     args,
	})
	if err != nil {
		if rpcErr, ok := err.(rpc.Error); ok {
			return nil, &ContractError{Reason: rpcErr.Error()}
		}
		return nil, err
	}
	return result, nil
}

// NetworkSize returns the number of identities eligible for committees.
func (n *RPCNode) NetworkSize(ctx context.Context) (int, error) {
	var state globalState
	if err := n.client.CallContext(ctx, &state, "dna_globalState"); err != nil {
		return 0, err
	}
	return state.NetworkSize, nil
}

// FeePerGas returns the current fee per gas unit.
func (n *RPCNode) FeePerGas(ctx context.Context) (float64, error) {
	var fee float64
	if err := n.client.CallContext(ctx, &fee, "bcn_feePerGas"); err != nil {
		return 0, err
	}
	return fee, nil
}
