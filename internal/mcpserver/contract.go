package mcpserver

// MemoryFormatContract describes the memory record structure that LLM
// consumers should follow when creating memories.
const MemoryFormatContract = `# Memoria Memory Record Contract

Every memory stored in Memoria has this structure.

## Fields

` + "```" + `json
{
  "id": 42,                          // assigned by the backend
  "title": "Lunch at the lake",      // OPTIONAL - short display name
  "content": "We found a heron...",  // REQUIRED - the memory text
  "date": "2025-06-14T12:30:00Z",    // REQUIRED - when it happened
  "created_at": "2025-06-14T19:02:11Z",
  "type": "text",                    // text | photo | video
  "media_urls": []                   // stored file URLs for photo/video
}
` + "```" + `

## Rules

1. **` + "`" + `content` + "`" + ` is required.** A memory without text is rejected
   before it reaches the backend.
2. **` + "`" + `event_date` + "`" + `** uses ` + "`" + `2006-01-02T15:04` + "`" + ` or a bare
   ` + "`" + `2006-01-02` + "`" + ` date. It records when the moment happened, not when
   it was written down.
3. **` + "`" + `type` + "`" + `** is one of ` + "`" + `text` + "`" + `, ` + "`" + `photo` + "`" + `, ` + "`" + `video` + "`" + `.
   Photo and video memories must carry at least one stored media URL, so
   the create_memory tool only produces text memories; attach media
   through the command-line client, which stages and uploads files.
4. **Timestamps** returned by list_memories are RFC 3339 in UTC.
5. **Deletion is permanent.** There is no trash or undo on the backend.

## Searching

- ` + "`" + `query` + "`" + ` matches titles and content case-insensitively as a
  substring.
- ` + "`" + `day` + "`" + ` narrows to memories whose event date falls on one calendar
  day (` + "`" + `YYYY-MM-DD` + "`" + `).
- Both filters combine with AND.
`
