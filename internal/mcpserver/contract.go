package mcpserver

// ContactNoteFormat describes the Markdown layout of generated contact
// notes. LLM consumers can rely on it when reading notes; they should not
// write notes in this layout themselves, ingestion owns that.
const ContactNoteFormat = `# Mannaz Contact Note Format

Every note Mannaz generates from a business card follows this layout.

## Structure

` + "```" + `markdown
Company: Acme Corp
Position: CTO
Phones:
- +1 555 123 4567
Emails:
- jane@acme.example
Website: https://acme.example
Address: 1 Main St, Springfield

---

<raw text as read from the card>

![[Jane Doe.jpg]]
` + "```" + `

## Rules

1. The contact's display name is the note's file name (without ` + "`" + `.md` + "`" + `).
2. Header lines always appear, in the order above. A missing value is
   written as ` + "`" + `-` + "`" + `.
3. ` + "`" + `Phones` + "`" + ` and ` + "`" + `Emails` + "`" + ` are dash lists; when empty they collapse to
   ` + "`" + `Phones: -` + "`" + ` on one line.
4. The ` + "`" + `---` + "`" + ` divider separates the structured header from the raw card
   text.
5. The final ` + "`" + `![[...]]` + "`" + ` embed references the archived card image in the
   shared ` + "`" + `attachments/` + "`" + ` directory (flat, no sub-folders).
6. File names use forward slashes and end with ` + "`" + `.md` + "`" + `; encoding is UTF-8
   with a trailing newline.

Notes in the contacts folder that do not follow this layout are treated as
hand-written and left alone by indexing and sync.
`
