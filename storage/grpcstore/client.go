package grpcstore

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/nameres/address"
	"xdao.co/nameres/cidutil"
	"xdao.co/nameres/codec"
	"xdao.co/nameres/storage"
)

// Client implements storage.Store over a Store gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client StoreClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ storage.Store = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended to the default dial options. Tests use it to inject
	// an in-process dialer.
	Extra []grpc.DialOption
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewStoreClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(data []byte) (cid.Cid, error) {
	expected, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}

	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return cid.Undef, mapRPC(err)
	}
	id, err := cid.Decode(reply.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}
	if !id.Equals(expected) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

func (c *Client) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b := reply.GetValue()
	got, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return nil, err
	}
	if !got.Equals(id) {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *Client) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

func (c *Client) PutVersioned(initial []storage.Entry, addr *address.Address, tag uint64) (address.Address, error) {
	var resp putVersionedResponse
	err := c.call(c.client.PutVersioned, putVersionedRequest{Initial: initial, Address: addr, Tag: tag}, &resp)
	if err != nil {
		return address.Zero, err
	}
	return resp.Address, nil
}

func (c *Client) AppendVersioned(entry storage.Entry, version uint64, addr address.Address, tag uint64) error {
	return c.call(c.client.AppendVersioned, appendVersionedRequest{Entry: entry, Version: version, Address: addr, Tag: tag}, nil)
}

func (c *Client) GetLatestVersioned(addr address.Address, tag uint64) (uint64, storage.Entry, error) {
	var resp versionedResponse
	if err := c.call(c.client.GetLatestVersioned, getVersionedRequest{Address: addr, Tag: tag}, &resp); err != nil {
		return 0, storage.Entry{}, err
	}
	return resp.Version, resp.Entry, nil
}

func (c *Client) GetVersioned(addr address.Address, tag uint64, version uint64) (storage.Entry, error) {
	var resp versionedResponse
	if err := c.call(c.client.GetVersioned, getVersionedRequest{Address: addr, Tag: tag, Version: version}, &resp); err != nil {
		return storage.Entry{}, err
	}
	return resp.Entry, nil
}

type bytesRPC func(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)

// call encodes req, invokes rpc, and decodes the reply into resp unless resp is nil.
func (c *Client) call(rpc bytesRPC, req any, resp any) error {
	body, err := codec.Marshal(req)
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := rpc(ctx, wrapperspb.Bytes(body))
	if err != nil {
		return mapRPC(err)
	}
	if resp == nil {
		return nil
	}
	return codec.Unmarshal(reply.GetValue(), resp)
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
