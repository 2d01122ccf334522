package xrequest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gomod.pri/spellkit/xerror"
)

type addWordReq struct {
	Word string `label:"word" validate:"required,dictword"`
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		word string
		want string
	}{
		{name: "plain", word: "bat"},
		{name: "crlf terminated", word: "bat\r\n"},
		{name: "lf terminated", word: "bat\n"},
		{name: "unicode", word: "naïve"},
		{name: "empty", word: "", want: "word is a required field"},
		{name: "two lines", word: "bat\r\ncat", want: "word must be a single line of valid text"},
		{name: "nul", word: "b\x00at", want: "word must be a single line of valid text"},
		{name: "invalid utf8", word: "b\xffat", want: "word must be a single line of valid text"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(addWordReq{Word: tt.word})
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, xerror.CodeInvalidParams, xerror.CodeOf(err))
			var ce *xerror.Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.want, ce.Message())
		})
	}
}

func TestResponses(t *testing.T) {
	ctx := context.Background()

	ok := NewDataRespWithCtx(ctx, []string{"the", "tea"})
	assert.Equal(t, RespCodeOK, ok.Code)
	assert.Equal(t, []string{"the", "tea"}, ok.Data)

	resp := NewErrRespWithCtx(ctx, xerror.New(xerror.CodeDictionaryWrite, errors.New("read-only file system")))
	assert.Equal(t, xerror.CodeDictionaryWrite, resp.Code)
	assert.Equal(t, xerror.ErrMsgs[xerror.CodeDictionaryWrite], resp.Message)
	assert.Equal(t, "read-only file system", resp.ErrMsg)

	resp = NewErrRespWithCtx(ctx, errors.New("plain"))
	assert.Equal(t, xerror.CodeInternalError, resp.Code)
	assert.Equal(t, "plain", resp.ErrMsg)

	assert.Equal(t, RespCodeMsg, NewNoneResp().Message)
}
