package grpcstore

import (
	"context"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/nameres/cidutil"
	"xdao.co/nameres/codec"
	"xdao.co/nameres/storage"
)

// Server exposes a storage.Store over the Store gRPC service.
type Server struct {
	UnimplementedStoreServer
	Store storage.Store
}

var errMissingStore = status.Error(codes.Unavailable, "missing store")

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Store == nil {
		return nil, errMissingStore
	}
	b := in.GetValue()
	// Enforce the CID contract on the server side too.
	expected, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	id, err := s.Store.Put(b)
	if err != nil {
		return nil, mapErr(err)
	}
	if !id.Equals(expected) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, errMissingStore
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	b, err := s.Store.Get(id)
	if err != nil {
		return nil, mapErr(err)
	}
	got, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	if !got.Equals(id) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Store == nil {
		return nil, errMissingStore
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return wrapperspb.Bool(s.Store.Has(id)), nil
}

func (s *Server) PutVersioned(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, errMissingStore
	}
	var req putVersionedRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	addr, err := s.Store.PutVersioned(req.Initial, req.Address, req.Tag)
	if err != nil {
		return nil, mapErr(err)
	}
	return encodeResponse(putVersionedResponse{Address: addr})
}

func (s *Server) AppendVersioned(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, errMissingStore
	}
	var req appendVersionedRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if err := s.Store.AppendVersioned(req.Entry, req.Version, req.Address, req.Tag); err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(nil), nil
}

func (s *Server) GetLatestVersioned(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, errMissingStore
	}
	var req getVersionedRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	v, e, err := s.Store.GetLatestVersioned(req.Address, req.Tag)
	if err != nil {
		return nil, mapErr(err)
	}
	return encodeResponse(versionedResponse{Version: v, Entry: e})
}

func (s *Server) GetVersioned(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, errMissingStore
	}
	var req getVersionedRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	e, err := s.Store.GetVersioned(req.Address, req.Tag, req.Version)
	if err != nil {
		return nil, mapErr(err)
	}
	return encodeResponse(versionedResponse{Version: req.Version, Entry: e})
}

func decodeRequest(in *wrapperspb.BytesValue, v any) error {
	if err := codec.Unmarshal(in.GetValue(), v); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

func encodeResponse(v any) (*wrapperspb.BytesValue, error) {
	b, err := codec.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return wrapperspb.Bytes(b), nil
}
