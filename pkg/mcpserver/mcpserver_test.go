package mcpserver_test

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/mcpserver"
	"github.com/papercomputeco/chatcbt/pkg/responder"
)

type fakeResponder struct {
	err   error
	texts []string
	opts  []responder.Options
}

func (f *fakeResponder) Respond(ctx context.Context, doc responder.Document, opts responder.Options) (*responder.Outcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	text, err := doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	f.texts = append(f.texts, text)
	f.opts = append(f.opts, opts)
	return &responder.Outcome{RequestID: "req-1", Reply: "Tell me more.", Appended: "\n\n**ChatCBT:** Tell me more."}, nil
}

var _ = Describe("MCP server", func() {
	var (
		ctx     context.Context
		fake    *fakeResponder
		session *mcp.ClientSession
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeResponder{}

		server := mcpserver.New(fake, zap.NewNop())
		serverTransport, clientTransport := mcp.NewInMemoryTransports()
		_, err := server.Connect(ctx, serverTransport, nil)
		Expect(err).NotTo(HaveOccurred())

		client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
		session, err = client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		session.Close()
	})

	It("lists the chat and summarize tools", func() {
		res, err := session.ListTools(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		Expect(names).To(ConsistOf("chat", "summarize"))
	})

	It("replies to a document passed inline", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "chat",
			Arguments: map[string]any{"document": "I feel anxious", "custom_prompt": "Be brief."},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeFalse())
		Expect(res.Content).To(HaveLen(1))
		Expect(res.Content[0].(*mcp.TextContent).Text).To(Equal("Tell me more."))

		Expect(fake.texts).To(Equal([]string{"I feel anxious"}))
		Expect(fake.opts[0]).To(Equal(responder.Options{CustomPrompt: "Be brief."}))
	})

	It("requests a summary", func() {
		_, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "summarize",
			Arguments: map[string]any{"document": "I feel anxious"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(fake.opts[0].IsSummary).To(BeTrue())
	})

	It("reports responder failures as tool errors", func() {
		fake.err = errors.New("invalid API key")

		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "chat",
			Arguments: map[string]any{"document": "I feel anxious"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeTrue())
	})

	It("requires a path or a document", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "chat",
			Arguments: map[string]any{},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeTrue())
		Expect(fake.texts).To(BeEmpty())
	})
})
